package source

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jmalten/recgraph/pkg/record"
	"github.com/jmalten/recgraph/pkg/schema"
)

// zooTOML is the canonical demo schema: three types with every
// back-reference cut by a declared rule.
const zooTOML = `
[types.zookeeper]
rules = ["-animals.zookeeper"]
dates = ["birthday"]

[types.enclosure]
rules = ["-animals.enclosure"]

[types.animal]
rules = ["-zookeeper.animals", "-enclosure.animals"]

[[types.animal.relations]]
name        = "zookeeper"
target      = "zookeeper"
foreign_key = "zookeeper_id"
inverse     = "animals"

[[types.animal.relations]]
name        = "enclosure"
target      = "enclosure"
foreign_key = "enclosure_id"
inverse     = "animals"
`

// ZooSchema returns the demo zoo schema.
func ZooSchema() *schema.Schema {
	s, err := schema.Parse([]byte(zooTOML))
	if err != nil {
		panic(err) // the embedded schema is a constant; failing to parse is a bug
	}
	return s
}

// ZooTOML returns the demo schema's TOML text, for writing to disk.
func ZooTOML() string { return zooTOML }

// SeedSource builds a record graph in memory; it never touches storage.
type SeedSource struct {
	// Animals per zookeeper when generating random graphs; 0 loads the
	// small fixed fixture instead.
	Keepers int
	Rand    *rand.Rand
}

// NewSeedSource creates a source for the fixed zoo fixture.
func NewSeedSource() *SeedSource { return &SeedSource{} }

// NewRandomSource creates a source generating keepers zookeepers with
// random animals and enclosures. Pass a seeded Rand for reproducible
// graphs; nil uses a time-seeded one.
func NewRandomSource(keepers int, rng *rand.Rand) *SeedSource {
	return &SeedSource{Keepers: keepers, Rand: rng}
}

// Load builds the graph.
func (s *SeedSource) Load(ctx context.Context) (*record.Graph, error) {
	if s.Keepers > 0 {
		return s.random()
	}
	return Zoo()
}

// Zoo returns the fixed demo graph: one zookeeper, one tiger, one ocean
// enclosure, fully cross-linked.
func Zoo() (*record.Graph, error) {
	g, err := ZooSchema().BuildGraph()
	if err != nil {
		return nil, err
	}

	keeperType, _ := g.Type("zookeeper")
	animalType, _ := g.Type("animal")
	enclosureType, _ := g.Type("enclosure")

	keeper := record.New(keeperType).
		Set("id", int64(1)).
		Set("name", "Christina Hill").
		Set("birthday", record.NewDate(1961, time.August, 19))
	enclosure := record.New(enclosureType).
		Set("id", int64(16)).
		Set("environment", "Ocean").
		Set("open_to_visitors", false)
	animal := record.New(animalType).
		Set("id", int64(13)).
		Set("name", "Heather").
		Set("species", "Tiger").
		Set("zookeeper_id", int64(1)).
		Set("enclosure_id", int64(16))

	for _, rec := range []*record.Record{keeper, enclosure, animal} {
		if err := g.Add(rec); err != nil {
			return nil, err
		}
	}
	if err := link(g, ZooSchema()); err != nil {
		return nil, err
	}
	return g, nil
}

var (
	seedNames        = []string{"Heather", "Bruce", "Milo", "Nadia", "Pip", "Soren", "Tilly", "Vega"}
	seedSpecies      = []string{"Tiger", "Otter", "Macaw", "Pangolin", "Iguana", "Lemur"}
	seedEnvironments = []string{"Ocean", "Savanna", "Rainforest", "Tundra", "Desert"}
)

// random generates Keepers zookeepers, one enclosure per environment, and
// two to five animals per keeper. Every record carries a "ref" UUID so
// generated graphs stay distinguishable across runs even though numeric
// ids restart from 1.
func (s *SeedSource) random() (*record.Graph, error) {
	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sch := ZooSchema()
	g, err := sch.BuildGraph()
	if err != nil {
		return nil, err
	}

	keeperType, _ := g.Type("zookeeper")
	animalType, _ := g.Type("animal")
	enclosureType, _ := g.Type("enclosure")

	for i, env := range seedEnvironments {
		enc := record.New(enclosureType).
			Set("id", int64(i+1)).
			Set("ref", uuid.NewString()).
			Set("environment", env).
			Set("open_to_visitors", rng.Intn(2) == 0)
		if err := g.Add(enc); err != nil {
			return nil, err
		}
	}

	animalID := int64(0)
	for i := 0; i < s.Keepers; i++ {
		keeperID := int64(i + 1)
		keeper := record.New(keeperType).
			Set("id", keeperID).
			Set("ref", uuid.NewString()).
			Set("name", fmt.Sprintf("Keeper %d", keeperID)).
			Set("birthday", record.NewDate(1950+rng.Intn(50), time.Month(1+rng.Intn(12)), 1+rng.Intn(28)))
		if err := g.Add(keeper); err != nil {
			return nil, err
		}

		for n := 2 + rng.Intn(4); n > 0; n-- {
			animalID++
			animal := record.New(animalType).
				Set("id", animalID).
				Set("ref", uuid.NewString()).
				Set("name", seedNames[rng.Intn(len(seedNames))]).
				Set("species", seedSpecies[rng.Intn(len(seedSpecies))]).
				Set("zookeeper_id", keeperID).
				Set("enclosure_id", int64(1+rng.Intn(len(seedEnvironments))))
			if err := g.Add(animal); err != nil {
				return nil, err
			}
		}
	}

	if err := link(g, sch); err != nil {
		return nil, err
	}
	return g, nil
}

// Ensure SeedSource implements Source.
var _ Source = (*SeedSource)(nil)
