// Command netexplorer-gen writes a synthetic statutory dataset: a manifest
// plus one dataset file per year, shaped like the real title exports. Later
// years grow new sections and amend a few existing ones, so the output is
// useful for exercising cross-year queries without shipping real data.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/internal/protocol"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/dataset"
	"github.com/taxcodeanalysistool/multiyear-multititle-network-explorer/pkg/graph"
)

// datasetFile is the on-disk shape pkg/dataset reads back.
type datasetFile struct {
	Title string       `json:"title"`
	Year  string       `json:"year"`
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

var subjectPool = []string{
	"gross income", "adjusted gross income", "taxable income", "itemized deductions",
	"standard deduction", "capital gains", "depreciation", "tax credits",
	"withholding", "estimated tax", "partnership income", "corporate distributions",
	"retirement plans", "exempt organizations", "estate tax", "gift tax",
	"self-employment tax", "alternative minimum tax", "net operating losses",
	"foreign tax credit",
}

var qualifierPool = []string{
	"", "qualified", "net", "foreign", "accrued", "deferred", "constructive", "recognized",
}

var conceptPool = []string{
	"deduction", "exemption", "taxable year", "fair market value",
	"adjusted basis", "dependent", "fiscal year", "gross receipts",
}

var definitionPhrases = []string{
	"all income from whatever source derived",
	"any amount received as compensation for services",
	"property held by the taxpayer for the production of income",
	"any arrangement under which payments are deferred to a later taxable year",
	"an organization described in subsection (c) and exempt from taxation under this chapter",
	"the excess of gains over losses from sales or exchanges of property",
}

var bodyPhrases = []string{
	"There shall be allowed as a deduction for the taxable year all amounts attributable to %s.",
	"In the case of an individual, %s shall be taken into account only to the extent provided in regulations.",
	"For purposes of this chapter, %s shall be determined without regard to any election under this section.",
	"The Secretary shall prescribe such regulations as may be necessary to carry out the treatment of %s.",
	"Gross income shall not include any amount received on account of %s.",
	"The amount of %s shall be reduced by the portion thereof described in the preceding subsection.",
}

var mentionPhrases = []string{
	"Proper adjustment shall be made for any %s allowable under this chapter.",
	"For this purpose the %s shall be determined as of the close of the taxable year.",
}

var refPhrases = []string{
	"Rules similar to the rules of section %d shall apply.",
	"See section %d for the treatment of amounts excluded under this subsection.",
}

// sectionSpec is one generated section of the full corpus. The per-year
// datasets are prefixes of the corpus, so a section keeps its number, text
// and links across every year it appears in.
type sectionSpec struct {
	num      int
	part     int
	subject  string
	entity   int   // index into builder.entities, -1 when nothing is defined here
	refEnts  []int // earlier defined terms this section uses
	mentions []int // indexes into conceptPool
	refs     []int // ordinals of earlier sections this one cites
	body     string
}

type entitySpec struct {
	id         string
	name       string
	definition string
	section    int // ordinal of the defining section
}

// builder holds the fully generated corpus plus the year schedule used to
// slice it into per-year datasets.
type builder struct {
	title    string
	name     string
	years    []string
	base     int // sections present in the first year
	growth   int // sections added by each later year
	sections []sectionSpec
	entities []entitySpec
}

func newBuilder(rng *rand.Rand, title, name string, years []string, base int) *builder {
	b := &builder{
		title:  title,
		name:   name,
		years:  years,
		base:   base,
		growth: base/10 + 1,
	}
	total := base + (len(years)-1)*b.growth

	num := 0
	for ord := 0; ord < total; ord++ {
		num += 1 + rng.Intn(3) // gaps look like repealed sections
		s := sectionSpec{
			num:     num,
			part:    ord / 10,
			subject: subjectFor(ord),
			entity:  -1,
		}

		// Use terms defined by earlier sections before possibly defining
		// a new one, so a section never cites its own definition.
		if len(b.entities) > 0 && rng.Float64() < 0.35 {
			s.refEnts = append(s.refEnts, rng.Intn(len(b.entities)))
		}

		defines := rng.Float64() < 0.4
		if defines {
			s.entity = len(b.entities)
			b.entities = append(b.entities, entitySpec{
				id:         "ent-" + slug(s.subject),
				name:       s.subject,
				definition: definitionPhrases[rng.Intn(len(definitionPhrases))],
				section:    ord,
			})
		}

		seenConcept := map[int]bool{}
		for k := rng.Intn(3); k > 0; k-- {
			ci := rng.Intn(len(conceptPool))
			if !seenConcept[ci] {
				seenConcept[ci] = true
				s.mentions = append(s.mentions, ci)
			}
		}

		if ord >= 2 {
			seenRef := map[int]bool{}
			for k := rng.Intn(3); k > 0; k-- {
				r := rng.Intn(ord)
				if !seenRef[r] {
					seenRef[r] = true
					s.refs = append(s.refs, r)
				}
			}
		}

		s.body = b.composeBody(rng, s)
		b.sections = append(b.sections, s)
	}
	return b
}

func (b *builder) composeBody(rng *rand.Rand, s sectionSpec) string {
	var sb strings.Builder
	if s.entity >= 0 {
		fmt.Fprintf(&sb, "For purposes of this subtitle, the term %s means %s.",
			s.subject, b.entities[s.entity].definition)
	} else {
		fmt.Fprintf(&sb, bodyPhrases[rng.Intn(len(bodyPhrases))], s.subject)
	}
	for _, e := range s.refEnts {
		ent := b.entities[e]
		fmt.Fprintf(&sb, " The term %s has the meaning given by section %d.",
			ent.name, b.sections[ent.section].num)
	}
	for j, ci := range s.mentions {
		sb.WriteString(" ")
		fmt.Fprintf(&sb, mentionPhrases[j%len(mentionPhrases)], conceptPool[ci])
	}
	for j, r := range s.refs {
		sb.WriteString(" ")
		fmt.Fprintf(&sb, refPhrases[j%len(refPhrases)], b.sections[r].num)
	}
	return sb.String()
}

// firstYear reports the year a section ordinal first appears in.
func (b *builder) firstYear(ord int) string {
	if ord < b.base {
		return b.years[0]
	}
	i := (ord-b.base)/b.growth + 1
	if i >= len(b.years) {
		i = len(b.years) - 1
	}
	return b.years[i]
}

// datasetFor slices the corpus down to the sections present in year
// yearIdx and assembles the dataset nodes and edges for that edition.
func (b *builder) datasetFor(yearIdx int) ([]graph.Node, []graph.Edge) {
	year := b.years[yearIdx]
	keep := b.base + yearIdx*b.growth
	if keep > len(b.sections) {
		keep = len(b.sections)
	}

	rootID := fmt.Sprintf("%s-idx", b.title)
	nodes := []graph.Node{{
		ID:    rootID,
		Name:  "Title " + b.title,
		Type:  graph.NodeIndex,
		Label: b.name,
		Props: map[string]any{"index_heading": b.name},
	}}
	var edges []graph.Edge

	// Part headings, with the section range each one spans this year.
	lastPart := b.sections[keep-1].part
	for p := 0; p <= lastPart; p++ {
		first, last := 0, 0
		for ord := 0; ord < keep; ord++ {
			if b.sections[ord].part != p {
				continue
			}
			if first == 0 {
				first = b.sections[ord].num
			}
			last = b.sections[ord].num
		}
		partID := partID(b.title, p)
		nodes = append(nodes, graph.Node{
			ID:    partID,
			Name:  "Part " + partLetter(p),
			Type:  graph.NodeIndex,
			Props: map[string]any{"index_heading": fmt.Sprintf("Sections %d to %d", first, last)},
		})
		edges = append(edges, graph.Edge{Source: rootID, Target: partID, Type: graph.EdgeHierarchy, Action: "contains"})
	}

	for ord := 0; ord < keep; ord++ {
		s := b.sections[ord]
		id := fmt.Sprintf("%s-s%d", b.title, s.num)

		body := s.body
		if yearIdx > 0 && ord%5 == yearIdx%5 {
			if n, err := strconv.Atoi(year); err == nil {
				body += fmt.Sprintf(" The preceding sentence shall apply to taxable years beginning after December 31, %d.", n-1)
			}
		}

		nodes = append(nodes, graph.Node{
			ID:       id,
			Name:     fmt.Sprintf("§ %d", s.num),
			Type:     graph.NodeSection,
			Label:    fmt.Sprintf("§ %d. %s", s.num, capitalize(s.subject)),
			Year:     year,
			Text:     body,
			FullName: capitalize(s.subject),
			Props:    map[string]any{"part": partLetter(s.part)},
		})
		edges = append(edges, graph.Edge{Source: partID(b.title, s.part), Target: id, Type: graph.EdgeHierarchy, Action: "contains"})

		if s.entity >= 0 {
			edges = append(edges, graph.Edge{
				Source: id,
				Target: b.entities[s.entity].id,
				Type:   graph.EdgeDefinition,
				Action: "defines",
				Year:   b.firstYear(ord),
			})
		}
		for _, e := range s.refEnts {
			edges = append(edges, graph.Edge{Source: id, Target: b.entities[e].id, Type: graph.EdgeReference, Action: "mentions"})
		}
		for _, ci := range s.mentions {
			edges = append(edges, graph.Edge{Source: id, Target: "con-" + slug(conceptPool[ci]), Type: graph.EdgeReference, Action: "mentions"})
		}
		for _, r := range s.refs {
			target := fmt.Sprintf("%s-s%d", b.title, b.sections[r].num)
			edges = append(edges, graph.Edge{Source: id, Target: target, Type: graph.EdgeReference, Action: "refers to"})
		}
	}

	for _, ent := range b.entities {
		if ent.section >= keep {
			continue
		}
		nodes = append(nodes, graph.Node{
			ID:    ent.id,
			Name:  ent.name,
			Type:  graph.NodeEntity,
			Props: map[string]any{"definition": ent.definition},
		})
	}

	usedConcept := map[int]bool{}
	for ord := 0; ord < keep; ord++ {
		for _, ci := range b.sections[ord].mentions {
			usedConcept[ci] = true
		}
	}
	for ci, name := range conceptPool {
		if usedConcept[ci] {
			nodes = append(nodes, graph.Node{ID: "con-" + slug(name), Name: name, Type: graph.NodeConcept})
		}
	}

	return nodes, edges
}

func subjectFor(ord int) string {
	base := subjectPool[ord%len(subjectPool)]
	q := qualifierPool[(ord/len(subjectPool))%len(qualifierPool)]
	subject := base
	if q != "" {
		subject = q + " " + base
	}
	if round := ord / (len(subjectPool) * len(qualifierPool)); round > 0 {
		subject = fmt.Sprintf("%s (series %d)", subject, round+1)
	}
	return subject
}

func partID(title string, p int) string {
	return fmt.Sprintf("%s-idx-%s", title, partLetter(p))
}

// partLetter names parts A..Z, then AA, AB and so on.
func partLetter(p int) string {
	s := ""
	for p >= 0 {
		s = string(rune('A'+p%26)) + s
		p = p/26 - 1
	}
	return s
}

func slug(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return '-'
		}
		return -1
	}, s)
	return strings.Trim(s, "-")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func main() {
	out := flag.String("out", "./data", "Directory to write the manifest and dataset files into")
	title := flag.String("title", "26", "Title identifier")
	name := flag.String("name", "Internal Revenue Code", "Display name of the title")
	yearsFlag := flag.String("years", "2018,2019,2020", "Comma-separated list of years, oldest first")
	sections := flag.Int("sections", 40, "Number of sections in the first year")
	seed := flag.Int64("seed", 1, "Random seed, same seed same dataset")

	flag.Parse()

	years := protocol.ParseList(*yearsFlag)
	if len(years) == 0 {
		log.Fatal("-years must name at least one year")
	}
	if *sections < 1 {
		log.Fatal("-sections must be at least 1")
	}

	if err := os.MkdirAll(*out, 0755); err != nil {
		log.Fatalf("Could not create output directory: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	b := newBuilder(rng, *title, *name, years, *sections)

	fmt.Printf("Generating title %s (%s), years %s\n", *title, *name, strings.Join(years, ", "))

	m := dataset.Manifest{Titles: []dataset.TitleEntry{{Title: *title, Name: *name}}}
	for i, year := range years {
		nodes, edges := b.datasetFor(i)

		// A dataset that would not load is a generator bug.
		if _, err := graph.NewSnapshot(nodes, edges); err != nil {
			log.Fatalf("Generated dataset for %s is inconsistent: %v", year, err)
		}

		file := fmt.Sprintf("title%s_%s.json", *title, year)
		data, err := json.MarshalIndent(datasetFile{Title: *title, Year: year, Nodes: nodes, Edges: edges}, "", "  ")
		if err != nil {
			log.Fatalf("Could not encode dataset for %s: %v", year, err)
		}
		if err := os.WriteFile(filepath.Join(*out, file), data, 0644); err != nil {
			log.Fatalf("Could not write %s: %v", file, err)
		}

		m.Titles[0].Years = append(m.Titles[0].Years, dataset.YearEntry{Year: year, File: file})
		fmt.Printf("  %s: %d nodes, %d edges -> %s\n", year, len(nodes), len(edges), file)
	}

	data, err := json.MarshalIndent(&m, "", "  ")
	if err != nil {
		log.Fatalf("Could not encode manifest: %v", err)
	}
	manifestPath := filepath.Join(*out, dataset.ManifestFile)
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		log.Fatalf("Could not write manifest: %v", err)
	}

	fmt.Printf("Manifest written to %s\n", manifestPath)
	fmt.Printf("Serve it with: netexplorer --data %s\n", *out)
}
