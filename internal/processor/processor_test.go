package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/recordsql/internal/migrate"
	"github.com/leapstack-labs/recordsql/internal/testutil"
	"github.com/leapstack-labs/recordsql/pkg/adapter"
	"github.com/leapstack-labs/recordsql/pkg/adapters/sqlite"
	"github.com/leapstack-labs/recordsql/pkg/core"
)

func solarSchema() *core.Schema {
	return &core.Schema{Types: map[string]core.TypeDef{
		"planet": {
			Attributes: map[string]core.AttributeDef{
				"name":         {Type: core.AttributeString},
				"mass":         {Type: core.AttributeNumber},
				"habitable":    {Type: core.AttributeBoolean},
				"discoveredAt": {Type: core.AttributeDateTime},
			},
			Relationships: map[string]core.RelationshipDef{
				"star":        {Kind: core.RelationshipSingle, Target: []string{"star"}, Inverse: "planets"},
				"moons":       {Kind: core.RelationshipCollection, Target: []string{"moon"}, Inverse: "planet"},
				"inhabitants": {Kind: core.RelationshipCollection, Target: []string{"species"}, Inverse: "homeworlds"},
			},
		},
		"moon": {
			Attributes: map[string]core.AttributeDef{"name": {Type: core.AttributeString}},
			Relationships: map[string]core.RelationshipDef{
				"planet": {Kind: core.RelationshipSingle, Target: []string{"planet"}, Inverse: "moons"},
			},
		},
		"star": {
			Attributes: map[string]core.AttributeDef{"name": {Type: core.AttributeString}},
			Relationships: map[string]core.RelationshipDef{
				"planets": {Kind: core.RelationshipCollection, Target: []string{"planet"}, Inverse: "star"},
			},
		},
		"species": {
			Attributes: map[string]core.AttributeDef{"name": {Type: core.AttributeString}},
			Relationships: map[string]core.RelationshipDef{
				"homeworlds": {Kind: core.RelationshipCollection, Target: []string{"planet"}, Inverse: "inhabitants"},
			},
		},
	}}
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	ctx := context.Background()

	db := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, db.Connect(ctx, adapter.Config{Type: "sqlite", Database: ":memory:"}))
	t.Cleanup(func() { _ = db.Close() })

	p := New(db, solarSchema(), testutil.NewTestLogger(t))
	require.NoError(t, migrate.New(db, p.Mapper(), nil).EnsureSchema(ctx))
	return p
}

func apply(t *testing.T, p *Processor, ops ...core.Operation) []*core.Record {
	t.Helper()
	results, err := p.ApplyOperations(context.Background(), ops)
	require.NoError(t, err)
	require.Len(t, results, len(ops))
	return results
}

func addPlanet(id, name string, mass float64) core.Operation {
	return core.Operation{Op: core.OpAddRecord, Record: &core.Record{
		Type:       "planet",
		ID:         id,
		Attributes: map[string]any{"name": name, "mass": mass},
	}}
}

func addSpecies(id, name string) core.Operation {
	return core.Operation{Op: core.OpAddRecord, Record: &core.Record{
		Type:       "species",
		ID:         id,
		Attributes: map[string]any{"name": name},
	}}
}

func relatedIDs(records []*core.Record) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}

func intPtr(n int) *int { return &n }

func TestAddRecord_Roundtrip(t *testing.T) {
	p := newTestProcessor(t)

	results := apply(t, p, core.Operation{Op: core.OpAddRecord, Record: &core.Record{
		Type: "planet",
		ID:   "p1",
		Attributes: map[string]any{
			"name":         "Neptune",
			"mass":         17.1,
			"habitable":    false,
			"discoveredAt": "1846-09-23T00:00:00Z",
		},
	}})

	rec := results[0]
	require.NotNil(t, rec)
	assert.Equal(t, "p1", rec.ID)
	assert.Equal(t, "planet", rec.Type)
	assert.Equal(t, "Neptune", rec.Attributes["name"])
	assert.Equal(t, 17.1, rec.Attributes["mass"])
	assert.Equal(t, false, rec.Attributes["habitable"])

	ts, ok := rec.Attributes["discoveredAt"].(time.Time)
	require.True(t, ok, "discoveredAt should decode to time.Time, got %T", rec.Attributes["discoveredAt"])
	assert.Equal(t, 1846, ts.Year())
}

func TestAddRecord_PayloadRelationships(t *testing.T) {
	p := newTestProcessor(t)

	results := apply(t, p,
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type:       "star",
			ID:         "s1",
			Attributes: map[string]any{"name": "Sol"},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type:       "planet",
			ID:         "p1",
			Attributes: map[string]any{"name": "Earth"},
			Relationships: map[string]core.RelationshipData{
				"star": {Record: &core.Identity{Type: "star", ID: "s1"}},
				// m1 has no stored row yet; a stub must be created.
				"moons": {Records: []core.Identity{{Type: "moon", ID: "m1"}}},
			},
		}},
	)

	planet := results[1]
	require.NotNil(t, planet)
	require.Contains(t, planet.Relationships, "star")
	assert.Equal(t, core.Identity{Type: "star", ID: "s1"}, *planet.Relationships["star"].Record)
	// Collections are never embedded on the record itself.
	assert.NotContains(t, planet.Relationships, "moons")

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "moons",
	}})
	require.NoError(t, err)
	require.True(t, res[0].Many)
	assert.Equal(t, []string{"m1"}, relatedIDs(res[0].Records))
}

func TestUpdateRecord_MergesAttributes(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p, addPlanet("p1", "Venus", 0.815))

	results := apply(t, p, core.Operation{Op: core.OpUpdateRecord, Record: &core.Record{
		Type:       "planet",
		ID:         "p1",
		Attributes: map[string]any{"mass": 0.9},
	}})

	rec := results[0]
	require.NotNil(t, rec)
	assert.Equal(t, "Venus", rec.Attributes["name"], "omitted attributes must survive")
	assert.Equal(t, 0.9, rec.Attributes["mass"])
}

func TestUpdateRecord_ReplacesPayloadRelationships(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		addPlanet("p1", "Earth", 1),
		addSpecies("sp1", "humans"),
		addSpecies("sp2", "dolphins"),
		core.Operation{
			Op:           core.OpAddToRelatedRecords,
			Identity:     &core.Identity{Type: "planet", ID: "p1"},
			Relationship: "inhabitants",
			RelatedRecord: &core.Identity{
				Type: "species", ID: "sp1",
			},
		},
	)

	apply(t, p, core.Operation{Op: core.OpUpdateRecord, Record: &core.Record{
		Type: "planet",
		ID:   "p1",
		Relationships: map[string]core.RelationshipData{
			"inhabitants": {Records: []core.Identity{{Type: "species", ID: "sp2"}}},
		},
	}})

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "inhabitants",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sp2"}, relatedIDs(res[0].Records))
}

func TestUpdateRecord_NotFound(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ApplyOperations(context.Background(), []core.Operation{{
		Op:     core.OpUpdateRecord,
		Record: &core.Record{Type: "planet", ID: "ghost"},
	}})
	require.Error(t, err)

	var nf *core.RecordNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Record not found: planet:ghost", err.Error())
}

func TestRemoveRecord(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p, addPlanet("p1", "Pluto", 0.002))

	results := apply(t, p, core.Operation{
		Op:       core.OpRemoveRecord,
		Identity: &core.Identity{Type: "planet", ID: "p1"},
	})
	assert.Nil(t, results[0], "removals yield no record")

	_, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:     core.QueryFindRecord,
		Record: &core.Identity{Type: "planet", ID: "p1"},
	}})
	require.Error(t, err)
	assert.Equal(t, "Record not found: planet:p1", err.Error())
}

func TestRemoveRecord_NotFound(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ApplyOperations(context.Background(), []core.Operation{{
		Op:       core.OpRemoveRecord,
		Identity: &core.Identity{Type: "planet", ID: "ghost"},
	}})
	require.Error(t, err)

	var nf *core.RecordNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Record not found: planet:ghost", err.Error())
}

// Removing a referenced record leaves the reference dangling; reading the
// relationship afterwards yields an absent related record, not an error.
func TestRemoveRecord_DanglingReference(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "star", ID: "s1", Attributes: map[string]any{"name": "Sol"},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "planet", ID: "p1",
			Attributes:    map[string]any{"name": "Earth"},
			Relationships: map[string]core.RelationshipData{"star": {Record: &core.Identity{Type: "star", ID: "s1"}}},
		}},
		core.Operation{Op: core.OpRemoveRecord, Identity: &core.Identity{Type: "star", ID: "s1"}},
	)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecord,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "star",
	}})
	require.NoError(t, err)
	assert.False(t, res[0].Many)
	assert.Nil(t, res[0].Record)
}

func TestBatchRollsBackOnFailure(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ApplyOperations(context.Background(), []core.Operation{
		addPlanet("p1", "Mercury", 0.055),
		{Op: core.OpUpdateRecord, Record: &core.Record{Type: "planet", ID: "ghost"}},
	})
	require.Error(t, err)

	res, qerr := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:   core.QueryFindRecords,
		Type: "planet",
	}})
	require.NoError(t, qerr)
	assert.Empty(t, res[0].Records, "failed batch must leave no rows behind")
}

func TestBatchEffectsVisibleWithinBatch(t *testing.T) {
	p := newTestProcessor(t)

	results := apply(t, p,
		addPlanet("p1", "Earht", 1),
		core.Operation{
			Op:        core.OpReplaceAttribute,
			Identity:  &core.Identity{Type: "planet", ID: "p1"},
			Attribute: "name",
			Value:     "Earth",
		},
	)
	assert.Equal(t, "Earth", results[1].Attributes["name"])
}

func TestReplaceAttribute(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p, addPlanet("p1", "Mars", 0.107))

	results := apply(t, p, core.Operation{
		Op:        core.OpReplaceAttribute,
		Identity:  &core.Identity{Type: "planet", ID: "p1"},
		Attribute: "habitable",
		Value:     false,
	})

	rec := results[0]
	require.NotNil(t, rec)
	assert.Equal(t, false, rec.Attributes["habitable"])
	assert.Equal(t, "Mars", rec.Attributes["name"])
}

func TestReplaceAttribute_Unknown(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p, addPlanet("p1", "Mars", 0.107))

	_, err := p.ApplyOperations(context.Background(), []core.Operation{{
		Op:        core.OpReplaceAttribute,
		Identity:  &core.Identity{Type: "planet", ID: "p1"},
		Attribute: "rings",
		Value:     true,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown attribute "rings"`)
}

func TestReplaceRelatedRecord_SetAndClear(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "star", ID: "s1", Attributes: map[string]any{"name": "Sol"},
		}},
		addPlanet("p1", "Earth", 1),
	)

	results := apply(t, p, core.Operation{
		Op:            core.OpReplaceRelatedRecord,
		Identity:      &core.Identity{Type: "planet", ID: "p1"},
		Relationship:  "star",
		RelatedRecord: &core.Identity{Type: "star", ID: "s1"},
	})
	require.Contains(t, results[0].Relationships, "star")

	// Clear with a nil related record.
	results = apply(t, p, core.Operation{
		Op:           core.OpReplaceRelatedRecord,
		Identity:     &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "star",
	})
	assert.NotContains(t, results[0].Relationships, "star")
}

func TestReplaceRelatedRecords_SymmetricDifference(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		addPlanet("p1", "Earth", 1),
		addSpecies("sp1", "humans"),
		addSpecies("sp2", "dolphins"),
		addSpecies("sp3", "mice"),
		core.Operation{
			Op:             core.OpReplaceRelatedRecords,
			Identity:       &core.Identity{Type: "planet", ID: "p1"},
			Relationship:   "inhabitants",
			RelatedRecords: []core.Identity{{Type: "species", ID: "sp1"}, {Type: "species", ID: "sp2"}},
		},
	)

	apply(t, p, core.Operation{
		Op:             core.OpReplaceRelatedRecords,
		Identity:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship:   "inhabitants",
		RelatedRecords: []core.Identity{{Type: "species", ID: "sp2"}, {Type: "species", ID: "sp3"}},
	})

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "inhabitants",
		Sorts:        []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Order: core.SortAscending}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sp2", "sp3"}, relatedIDs(res[0].Records))
}

// Replacing a related set with its current value must leave the links
// untouched, no matter how often it is repeated.
func TestReplaceRelatedRecords_CurrentValueIsNoOp(t *testing.T) {
	p := newTestProcessor(t)
	replace := core.Operation{
		Op:             core.OpReplaceRelatedRecords,
		Identity:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship:   "inhabitants",
		RelatedRecords: []core.Identity{{Type: "species", ID: "sp1"}, {Type: "species", ID: "sp2"}},
	}
	apply(t, p,
		addPlanet("p1", "Earth", 1),
		addSpecies("sp1", "humans"),
		addSpecies("sp2", "dolphins"),
		replace,
	)

	apply(t, p, replace, replace)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "inhabitants",
		Sorts:        []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Order: core.SortAscending}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sp2", "sp1"}, relatedIDs(res[0].Records), "repeated replacement must not drop or duplicate links")
}

func TestAddToRelatedRecords_Idempotent(t *testing.T) {
	p := newTestProcessor(t)
	link := core.Operation{
		Op:            core.OpAddToRelatedRecords,
		Identity:      &core.Identity{Type: "planet", ID: "p1"},
		Relationship:  "inhabitants",
		RelatedRecord: &core.Identity{Type: "species", ID: "sp1"},
	}
	apply(t, p, addPlanet("p1", "Earth", 1), addSpecies("sp1", "humans"), link, link)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "inhabitants",
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"sp1"}, relatedIDs(res[0].Records), "double add must not duplicate the link")
}

func TestRemoveFromRelatedRecords_Idempotent(t *testing.T) {
	p := newTestProcessor(t)
	unlink := core.Operation{
		Op:            core.OpRemoveFromRelatedRecords,
		Identity:      &core.Identity{Type: "planet", ID: "p1"},
		Relationship:  "inhabitants",
		RelatedRecord: &core.Identity{Type: "species", ID: "sp1"},
	}

	// Removing an absent link succeeds and changes nothing.
	apply(t, p, addPlanet("p1", "Earth", 1), addSpecies("sp1", "humans"), unlink)
}

// Adding a related record and then removing it must return the relation to
// empty.
func TestAddThenRemoveRelatedRecord_RoundTrips(t *testing.T) {
	p := newTestProcessor(t)
	related := &core.Identity{Type: "species", ID: "sp1"}
	apply(t, p,
		addPlanet("p1", "Earth", 1),
		addSpecies("sp1", "humans"),
		core.Operation{
			Op:            core.OpAddToRelatedRecords,
			Identity:      &core.Identity{Type: "planet", ID: "p1"},
			Relationship:  "inhabitants",
			RelatedRecord: related,
		},
		core.Operation{
			Op:            core.OpRemoveFromRelatedRecords,
			Identity:      &core.Identity{Type: "planet", ID: "p1"},
			Relationship:  "inhabitants",
			RelatedRecord: related,
		},
	)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "inhabitants",
	}})
	require.NoError(t, err)
	assert.Empty(t, res[0].Records)
}

func seedMasses(t *testing.T, p *Processor) {
	t.Helper()
	apply(t, p,
		addPlanet("p1", "a", 1),
		addPlanet("p2", "b", 2),
		addPlanet("p3", "c", 3),
		addPlanet("p5", "d", 5),
	)
}

func TestFindRecords_Filter(t *testing.T) {
	p := newTestProcessor(t)
	seedMasses(t, p)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:      core.QueryFindRecords,
		Type:    "planet",
		Filters: []core.FilterSpecifier{{Kind: core.SpecifierAttribute, Attribute: "mass", Op: core.FilterGt, Value: 2}},
		Sorts:   []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "mass", Order: core.SortAscending}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p5"}, relatedIDs(res[0].Records))
}

func TestFindRecords_ConjunctiveFilters(t *testing.T) {
	p := newTestProcessor(t)
	seedMasses(t, p)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:   core.QueryFindRecords,
		Type: "planet",
		Filters: []core.FilterSpecifier{
			{Kind: core.SpecifierAttribute, Attribute: "mass", Op: core.FilterGte, Value: 2},
			{Kind: core.SpecifierAttribute, Attribute: "mass", Op: core.FilterLt, Value: 5},
		},
		Sorts: []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "mass"}},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, relatedIDs(res[0].Records))
}

func TestFindRecords_CompositeSort(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "planet", ID: "p1",
			Attributes: map[string]any{"name": "b", "habitable": true},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "planet", ID: "p2",
			Attributes: map[string]any{"name": "a", "habitable": false},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "planet", ID: "p3",
			Attributes: map[string]any{"name": "a", "habitable": true},
		}},
	)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:   core.QueryFindRecords,
		Type: "planet",
		Sorts: []core.SortSpecifier{
			{Kind: core.SpecifierAttribute, Attribute: "name", Order: core.SortAscending},
			{Kind: core.SpecifierAttribute, Attribute: "habitable", Order: core.SortDescending},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p2", "p1"}, relatedIDs(res[0].Records))
}

func TestFindRecords_Paging(t *testing.T) {
	p := newTestProcessor(t)
	seedMasses(t, p)

	sorts := []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "mass", Order: core.SortAscending}}

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{
		{
			Op: core.QueryFindRecords, Type: "planet", Sorts: sorts,
			Page: &core.PageSpecifier{Kind: core.SpecifierOffsetLimit, Offset: intPtr(1), Limit: intPtr(2)},
		},
		{
			Op: core.QueryFindRecords, Type: "planet", Sorts: sorts,
			Page: &core.PageSpecifier{Kind: core.SpecifierOffsetLimit, Limit: intPtr(2)},
		},
		{
			// Bare offset exercises the LIMIT -1 workaround on SQLite.
			Op: core.QueryFindRecords, Type: "planet", Sorts: sorts,
			Page: &core.PageSpecifier{Kind: core.SpecifierOffsetLimit, Offset: intPtr(3)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p3"}, relatedIDs(res[0].Records))
	assert.Equal(t, []string{"p1", "p2"}, relatedIDs(res[1].Records))
	assert.Equal(t, []string{"p5"}, relatedIDs(res[2].Records))
}

func TestFindRecords_IdentityList(t *testing.T) {
	p := newTestProcessor(t)
	seedMasses(t, p)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op: core.QueryFindRecords,
		Records: []core.Identity{
			{Type: "planet", ID: "p3"},
			{Type: "planet", ID: "ghost"},
			{Type: "planet", ID: "p1"},
		},
	}})
	require.NoError(t, err)
	// Input order preserved, misses dropped silently.
	assert.Equal(t, []string{"p3", "p1"}, relatedIDs(res[0].Records))
}

func TestFindRelatedRecords_ParentNotFound(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "ghost"},
		Relationship: "moons",
	}})
	require.Error(t, err)
	assert.Equal(t, "Record not found: planet:ghost", err.Error())
}

func TestFindRelatedRecords_FilteredAndPaged(t *testing.T) {
	p := newTestProcessor(t)
	apply(t, p,
		addPlanet("p1", "Jupiter", 317.8),
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "moon", ID: "m1", Attributes: map[string]any{"name": "Io"},
			Relationships: map[string]core.RelationshipData{"planet": {Record: &core.Identity{Type: "planet", ID: "p1"}}},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "moon", ID: "m2", Attributes: map[string]any{"name": "Europa"},
			Relationships: map[string]core.RelationshipData{"planet": {Record: &core.Identity{Type: "planet", ID: "p1"}}},
		}},
		core.Operation{Op: core.OpAddRecord, Record: &core.Record{
			Type: "moon", ID: "m3", Attributes: map[string]any{"name": "Ganymede"},
			Relationships: map[string]core.RelationshipData{"planet": {Record: &core.Identity{Type: "planet", ID: "p1"}}},
		}},
	)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{{
		Op:           core.QueryFindRelatedRecords,
		Record:       &core.Identity{Type: "planet", ID: "p1"},
		Relationship: "moons",
		Filters:      []core.FilterSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Op: core.FilterLt, Value: "Io"}},
		Sorts:        []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Order: core.SortAscending}},
		Page:         &core.PageSpecifier{Kind: core.SpecifierOffsetLimit, Limit: intPtr(2)},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, relatedIDs(res[0].Records))
}

func TestUnsupportedSpecifiers(t *testing.T) {
	tests := []struct {
		name string
		q    core.QueryExpression
	}{
		{
			name: "unknown filter op",
			q: core.QueryExpression{
				Op: core.QueryFindRecords, Type: "planet",
				Filters: []core.FilterSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Op: "like", Value: "a%"}},
			},
		},
		{
			name: "unknown filter kind",
			q: core.QueryExpression{
				Op: core.QueryFindRecords, Type: "planet",
				Filters: []core.FilterSpecifier{{Kind: "relationship", Attribute: "name", Op: core.FilterEqual, Value: "a"}},
			},
		},
		{
			name: "filter on undeclared attribute",
			q: core.QueryExpression{
				Op: core.QueryFindRecords, Type: "planet",
				Filters: []core.FilterSpecifier{{Kind: core.SpecifierAttribute, Attribute: "rings", Op: core.FilterEqual, Value: true}},
			},
		},
		{
			name: "unknown sort order",
			q: core.QueryExpression{
				Op: core.QueryFindRecords, Type: "planet",
				Sorts: []core.SortSpecifier{{Kind: core.SpecifierAttribute, Attribute: "name", Order: "sideways"}},
			},
		},
		{
			name: "unknown page kind",
			q: core.QueryExpression{
				Op: core.QueryFindRecords, Type: "planet",
				Page: &core.PageSpecifier{Kind: "cursor", Limit: intPtr(1)},
			},
		},
		{
			name: "unknown query op",
			q:    core.QueryExpression{Op: "find_everything"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t)
			_, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{tt.q})
			require.Error(t, err)

			var qerr *core.QueryExpressionError
			assert.True(t, errors.As(err, &qerr), "want *core.QueryExpressionError, got %v", err)
		})
	}
}

func TestUnsupportedOperation(t *testing.T) {
	p := newTestProcessor(t)

	_, err := p.ApplyOperations(context.Background(), []core.Operation{{Op: "merge_records"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported operation "merge_records"`)
}

func TestQueryBatchResultsAligned(t *testing.T) {
	p := newTestProcessor(t)
	seedMasses(t, p)

	res, err := p.ExecuteQueries(context.Background(), []core.QueryExpression{
		{Op: core.QueryFindRecord, Record: &core.Identity{Type: "planet", ID: "p2"}},
		{Op: core.QueryFindRecords, Type: "planet"},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.False(t, res[0].Many)
	require.NotNil(t, res[0].Record)
	assert.Equal(t, "p2", res[0].Record.ID)

	assert.True(t, res[1].Many)
	assert.Len(t, res[1].Records, 4)
}
