package provenance

import (
	"testing"

	"github.com/orneryd/plexusgraph/pkg/engine"
	"github.com/orneryd/plexusgraph/pkg/graph"
	"github.com/orneryd/plexusgraph/pkg/plexuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	eng := engine.New(nil)
	ctx := graph.NewContext("test-ctx")
	require.NoError(t, eng.UpsertContext(ctx))
	return New(eng, "test-ctx")
}

func TestCreateChainAndListChains(t *testing.T) {
	api := newTestAPI(t)

	id, err := api.CreateChain("refactor notes", "tracking the auth rewrite")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	chains, err := api.ListChains(nil)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, id, chains[0].ID)
	assert.Equal(t, "refactor notes", chains[0].Name)
	assert.Equal(t, ChainActive, chains[0].Status)
}

func TestListChainsFiltersByStatus(t *testing.T) {
	api := newTestAPI(t)

	activeID, err := api.CreateChain("active chain", "")
	require.NoError(t, err)
	archivedID, err := api.CreateChain("archived chain", "")
	require.NoError(t, err)
	require.NoError(t, api.ArchiveChain(archivedID))

	archived := ChainArchived
	chains, err := api.ListChains(&archived)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, archivedID, chains[0].ID)

	active := ChainActive
	chains, err = api.ListChains(&active)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, activeID, chains[0].ID)
}

func TestArchiveChainPersistsStatus(t *testing.T) {
	api := newTestAPI(t)

	id, err := api.CreateChain("chain", "")
	require.NoError(t, err)
	require.NoError(t, api.ArchiveChain(id))

	view, _, err := api.GetChain(id)
	require.NoError(t, err)
	assert.Equal(t, ChainArchived, view.Status)
}

func TestAddMarkAndGetChain(t *testing.T) {
	api := newTestAPI(t)

	chainID, err := api.CreateChain("chain", "")
	require.NoError(t, err)

	col := int64(12)
	markID, err := api.AddMark(chainID, MarkInput{
		File:       "pkg/auth/login.go",
		Line:       42,
		Column:     &col,
		Annotation: "token refresh happens here",
		MarkType:   "note",
		Tags:       []string{"auth", "security"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, markID)

	view, marks, err := api.GetChain(chainID)
	require.NoError(t, err)
	assert.Equal(t, chainID, view.ID)
	require.Len(t, marks, 1)
	assert.Equal(t, markID, marks[0].ID)
	assert.Equal(t, "pkg/auth/login.go", marks[0].File)
	assert.Equal(t, int64(42), marks[0].Line)
	require.NotNil(t, marks[0].Column)
	assert.Equal(t, int64(12), *marks[0].Column)
	assert.Equal(t, "token refresh happens here", marks[0].Annotation)
	assert.ElementsMatch(t, []string{"auth", "security"}, marks[0].Tags)
}

func TestAddMarkRejectsUnknownChain(t *testing.T) {
	api := newTestAPI(t)

	_, err := api.AddMark("not-a-real-chain", MarkInput{File: "x.go", Line: 1, Annotation: "note"})
	assert.ErrorIs(t, err, plexuserr.ErrNodeNotFound)
}

func TestUpdateMarkAppliesPartialChanges(t *testing.T) {
	api := newTestAPI(t)

	chainID, err := api.CreateChain("chain", "")
	require.NoError(t, err)
	markID, err := api.AddMark(chainID, MarkInput{
		File:       "a.go",
		Line:       1,
		Annotation: "original",
		Tags:       []string{"old"},
	})
	require.NoError(t, err)

	newAnnotation := "revised"
	newLine := int64(9)
	err = api.UpdateMark(markID, MarkUpdate{
		Annotation: &newAnnotation,
		Line:       &newLine,
		Tags:       []string{"new", "tags"},
	})
	require.NoError(t, err)

	marks, err := api.ListMarks(MarkFilter{ChainID: chainID})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "revised", marks[0].Annotation)
	assert.Equal(t, int64(9), marks[0].Line)
	assert.ElementsMatch(t, []string{"new", "tags"}, marks[0].Tags)
	assert.Equal(t, "a.go", marks[0].File, "unset fields should be left unchanged")
}

func TestListMarksFiltersByFileAndTag(t *testing.T) {
	api := newTestAPI(t)

	chainID, err := api.CreateChain("chain", "")
	require.NoError(t, err)
	_, err = api.AddMark(chainID, MarkInput{File: "a.go", Line: 1, Annotation: "one", Tags: []string{"x"}})
	require.NoError(t, err)
	_, err = api.AddMark(chainID, MarkInput{File: "b.go", Line: 2, Annotation: "two", Tags: []string{"y"}})
	require.NoError(t, err)

	marks, err := api.ListMarks(MarkFilter{File: "a.go"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "one", marks[0].Annotation)

	marks, err = api.ListMarks(MarkFilter{Tag: "y"})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "two", marks[0].Annotation)
}

func TestListTagsReturnsUniqueSortedTags(t *testing.T) {
	api := newTestAPI(t)

	chainID, err := api.CreateChain("chain", "")
	require.NoError(t, err)
	_, err = api.AddMark(chainID, MarkInput{File: "a.go", Line: 1, Annotation: "one", Tags: []string{"zebra", "auth"}})
	require.NoError(t, err)
	_, err = api.AddMark(chainID, MarkInput{File: "b.go", Line: 2, Annotation: "two", Tags: []string{"auth", "cache"}})
	require.NoError(t, err)

	tags, err := api.ListTags()
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "cache", "zebra"}, tags)
}

func TestGetLinksReturnsOutgoingAndIncoming(t *testing.T) {
	api := newTestAPI(t)
	eng := api.eng

	chainID, err := api.CreateChain("chain", "")
	require.NoError(t, err)
	markA, err := api.AddMark(chainID, MarkInput{File: "a.go", Line: 1, Annotation: "a"})
	require.NoError(t, err)
	markB, err := api.AddMark(chainID, MarkInput{File: "b.go", Line: 2, Annotation: "b"})
	require.NoError(t, err)

	edge := graph.NewEdgeInDimension(graph.NodeID(markA), graph.NodeID(markB), "links_to", graph.DimensionProvenance)
	_, err = eng.AddEdge(api.contextID, edge)
	require.NoError(t, err)

	outgoing, incoming, err := api.GetLinks(markA)
	require.NoError(t, err)
	assert.Equal(t, []string{markB}, outgoing)
	assert.Empty(t, incoming)

	outgoing, incoming, err = api.GetLinks(markB)
	require.NoError(t, err)
	assert.Empty(t, outgoing)
	assert.Equal(t, []string{markA}, incoming)
}

func TestGetChainOnUnknownContextErrors(t *testing.T) {
	eng := engine.New(nil)
	api := New(eng, "missing-ctx")

	_, _, err := api.GetChain("whatever")
	assert.ErrorIs(t, err, plexuserr.ErrContextNotFound)
}

func TestParseChainStatusRejectsUnknownValue(t *testing.T) {
	_, err := ParseChainStatus("paused")
	assert.Error(t, err)

	status, err := ParseChainStatus("archived")
	require.NoError(t, err)
	assert.Equal(t, ChainArchived, status)
}
