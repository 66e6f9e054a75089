// Package catalog loads the static opening catalog.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vytor/openingdrill/internal/engine"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/pgn"
	"gopkg.in/yaml.v3"
)

//go:embed openings.yaml
var defaultCatalog []byte

type fileFormat struct {
	Openings []openingEntry `yaml:"openings"`
}

type openingEntry struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	ECO         string           `yaml:"eco"`
	Difficulty  string           `yaml:"difficulty"`
	Side        string           `yaml:"side"`
	Category    string           `yaml:"category"`
	Tags        []string         `yaml:"tags"`
	Description string           `yaml:"description"`
	MainLine    []string         `yaml:"main_line"`
	PGN         string           `yaml:"pgn"`
	Alternates  []alternateEntry `yaml:"alternates"`
}

type alternateEntry struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Moves       []string `yaml:"moves"`
	PGN         string   `yaml:"pgn"`
}

// Catalog is the immutable set of known openings in file order.
type Catalog struct {
	openings []models.Opening
	byID     map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func Read(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, replays every line on a real board and fills in
// missing ECO codes from the ECO book.
func Parse(data []byte) (*Catalog, error) {
	log := logger.Default().WithPrefix("catalog")

	var file fileFormat
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]int, len(file.Openings))}
	for i, entry := range file.Openings {
		op, err := entry.toOpening()
		if err != nil {
			return nil, fmt.Errorf("opening #%d (%s): %w", i+1, entry.ID, err)
		}
		if _, dup := c.byID[op.ID]; dup {
			return nil, fmt.Errorf("opening #%d: duplicate id %q", i+1, op.ID)
		}
		if op.ECOCode == "" {
			if code, title, ok := engine.LookupECO(op.MainLine); ok {
				op.ECOCode = code
				log.Debug("backfilled eco for %s: %s (%s)", op.ID, code, title)
			}
		}
		c.byID[op.ID] = len(c.openings)
		c.openings = append(c.openings, op)
	}

	log.Info("loaded %d openings", len(c.openings))
	return c, nil
}

// sans prefers an explicit SAN list and falls back to PGN movetext.
func sans(list []string, text string) []string {
	if len(list) > 0 || text == "" {
		return list
	}
	return pgn.Movetext(text)
}

func (e openingEntry) toOpening() (models.Opening, error) {
	if e.PGN != "" {
		headers := pgn.ParseHeaders(e.PGN)
		if e.Name == "" {
			e.Name = headers["Opening"]
		}
		if e.ECO == "" {
			e.ECO = headers["ECO"]
		}
	}
	e.MainLine = sans(e.MainLine, e.PGN)

	id := strings.TrimSpace(e.ID)
	if id == "" {
		return models.Opening{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(e.Name) == "" {
		return models.Opening{}, fmt.Errorf("missing name")
	}
	side, ok := models.ParseSide(e.Side)
	if !ok {
		return models.Opening{}, fmt.Errorf("invalid side %q", e.Side)
	}
	difficulty := models.Difficulty(strings.ToLower(strings.TrimSpace(e.Difficulty)))
	switch difficulty {
	case models.Beginner, models.Intermediate, models.Advanced:
	default:
		return models.Opening{}, fmt.Errorf("invalid difficulty %q", e.Difficulty)
	}
	if len(e.MainLine) == 0 {
		return models.Opening{}, fmt.Errorf("empty main line")
	}

	main, err := engine.DecodeSAN(e.MainLine)
	if err != nil {
		return models.Opening{}, fmt.Errorf("main line: %w", err)
	}

	op := models.Opening{
		ID:          id,
		Name:        e.Name,
		ECOCode:     e.ECO,
		Difficulty:  difficulty,
		Description: e.Description,
		MainLine:    main,
		Tags:        e.Tags,
		Category:    e.Category,
		Side:        side,
	}
	for _, alt := range e.Alternates {
		// Alternates are matched first, so an empty one would shadow the main line.
		altSANs := sans(alt.Moves, alt.PGN)
		if len(altSANs) == 0 {
			return models.Opening{}, fmt.Errorf("alternate %q: empty line", alt.Name)
		}
		moves, err := engine.DecodeSAN(altSANs)
		if err != nil {
			return models.Opening{}, fmt.Errorf("alternate %q: %w", alt.Name, err)
		}
		op.AlternateLines = append(op.AlternateLines, models.AlternateLine{
			Name:           alt.Name,
			DeviationIndex: deviation(main, moves),
			Description:    alt.Description,
			Moves:          moves,
		})
	}
	return op, nil
}

// deviation is the first ply where alt leaves main.
func deviation(main, alt models.Line) int {
	for i := range alt {
		if i >= len(main) || !main[i].SameAs(alt[i]) {
			return i
		}
	}
	return len(alt)
}

// All returns every opening in catalog order.
func (c *Catalog) All() []models.Opening {
	return append([]models.Opening(nil), c.openings...)
}

func (c *Catalog) Get(id string) (models.Opening, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Opening{}, false
	}
	return c.openings[i], true
}

func (c *Catalog) Len() int {
	return len(c.openings)
}

// Filter returns openings for side and difficulty; empty values match all.
func (c *Catalog) Filter(side models.Side, difficulty models.Difficulty) []models.Opening {
	var out []models.Opening
	for _, op := range c.openings {
		if side != "" && op.Side != side {
			continue
		}
		if difficulty != "" && op.Difficulty != difficulty {
			continue
		}
		out = append(out, op)
	}
	return out
}
