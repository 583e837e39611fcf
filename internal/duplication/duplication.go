// Package duplication finds structurally similar code across the whole
// scanned tree. It runs as a barrier stage after every file is parsed,
// because similarity needs a global index that per-file detectors cannot
// build incrementally.
//
// Each top-level declaration becomes a span. Its token stream is
// normalized (identifiers, numbers and strings collapse to placeholders,
// so renamed copies still match), hashed into sliding FNV-64a shingles,
// and compared pairwise by Jaccard similarity over the shingle sets.
// Spans above the profile threshold merge transitively with union-find,
// so the reported clusters partition: no span ever appears in two
// clusters.
package duplication

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

// RuleDuplicateCode is the rule id attached to cluster-member findings.
const RuleDuplicateCode = "duplicate-code"

// Engine holds the similarity parameters for one scan.
type Engine struct {
	shingleSize int
	minTokens   int
	threshold   float64
}

// New builds an Engine from the profile's duplication thresholds.
func New(profile *config.Profile) *Engine {
	t := profile.Thresholds
	e := &Engine{
		shingleSize: t.DuplicationShingleSize,
		minTokens:   t.DuplicationMinTokens,
		threshold:   t.DuplicationSimilarity,
	}
	if e.shingleSize < 1 {
		e.shingleSize = 1
	}
	if e.minTokens < e.shingleSize {
		e.minTokens = e.shingleSize
	}
	return e
}

// span is one candidate region: a top-level declaration with enough
// tokens to be worth comparing.
type span struct {
	file      string
	name      string
	startLine int
	endLine   int
	tokens    int
	shingles  map[uint64]struct{}
}

// Detect compares every qualifying span against every other and returns
// the merged clusters plus one finding per cluster member. Units that
// failed to parse contribute nothing.
func (e *Engine) Detect(units []*source.Unit) ([]findings.DuplicateCluster, []findings.Finding) {
	var spans []*span
	for _, unit := range units {
		if unit == nil || !unit.OK() {
			continue
		}
		spans = append(spans, e.spansOf(unit)...)
	}
	if len(spans) < 2 {
		return nil, nil
	}

	uf := newUnionFind(len(spans))
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			sim := jaccard(spans[i].shingles, spans[j].shingles)
			if sim >= e.threshold {
				uf.union(i, j, sim)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range spans {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var clusters []findings.DuplicateCluster
	for root, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(a, b int) bool {
			sa, sb := spans[members[a]], spans[members[b]]
			if sa.file != sb.file {
				return sa.file < sb.file
			}
			return sa.startLine < sb.startLine
		})
		cluster := findings.DuplicateCluster{
			Similarity: uf.minSim[root],
			Signature:  signature(spans[members[0]].shingles),
		}
		for _, idx := range members {
			s := spans[idx]
			cluster.Members = append(cluster.Members, findings.Span{
				File:      s.file,
				StartLine: s.startLine,
				EndLine:   s.endLine,
			})
		}
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(a, b int) bool {
		ma, mb := clusters[a].Members[0], clusters[b].Members[0]
		if ma.File != mb.File {
			return ma.File < mb.File
		}
		return ma.StartLine < mb.StartLine
	})
	for i := range clusters {
		clusters[i].ID = fmt.Sprintf("dup-%04d", i+1)
	}

	return clusters, e.findingsFor(clusters, spans)
}

// findingsFor fans each cluster out to one finding per member span.
func (e *Engine) findingsFor(clusters []findings.DuplicateCluster, spans []*span) []findings.Finding {
	byPos := make(map[string]*span, len(spans))
	for _, s := range spans {
		byPos[fmt.Sprintf("%s:%d", s.file, s.startLine)] = s
	}

	var out []findings.Finding
	for _, cluster := range clusters {
		severity := findings.SeverityWarning
		if len(cluster.Members) >= 4 {
			severity = findings.SeverityCritical
		}
		for _, member := range cluster.Members {
			s := byPos[fmt.Sprintf("%s:%d", member.File, member.StartLine)]
			name := "declaration"
			tokens := 0
			if s != nil {
				name = s.name
				tokens = s.tokens
			}
			out = append(out, findings.Finding{
				RuleID:    RuleDuplicateCode,
				Category:  findings.CategoryCoupling,
				Severity:  severity,
				File:      member.File,
				StartLine: member.StartLine,
				EndLine:   member.EndLine,
				Message: fmt.Sprintf("%s duplicates %s (similarity %.2f)",
					name, otherMembers(cluster.Members, member), cluster.Similarity),
				Evidence: &findings.Evidence{
					ClusterID: cluster.ID,
					Counts: map[string]int{
						"members": len(cluster.Members),
						"tokens":  tokens,
					},
				},
			})
		}
	}
	return out
}

// otherMembers renders the rest of the cluster for a member's message,
// capped at three locations.
func otherMembers(members []findings.Span, self findings.Span) string {
	var parts []string
	for _, m := range members {
		if m == self {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%d", m.File, m.StartLine))
		if len(parts) == 3 {
			break
		}
	}
	rest := len(members) - 1 - len(parts)
	joined := strings.Join(parts, ", ")
	if rest > 0 {
		return fmt.Sprintf("%s and %d more", joined, rest)
	}
	return joined
}

// spansOf extracts the comparable spans of one parsed unit: top-level
// functions and type or block declarations with at least minTokens
// normalized tokens inside their line range.
func (e *Engine) spansOf(unit *source.Unit) []*span {
	if unit.Tree == nil {
		return nil
	}
	var out []*span
	for _, decl := range unit.Tree.Children {
		if decl.Kind != source.KindFunc && decl.Kind != source.KindTypeDecl {
			continue
		}
		tokens := normalizedRange(unit.Tokens, decl.StartLine, decl.EndLine)
		if len(tokens) < e.minTokens {
			continue
		}
		out = append(out, &span{
			file:      unit.Path,
			name:      decl.DisplayName(),
			startLine: decl.StartLine,
			endLine:   decl.EndLine,
			tokens:    len(tokens),
			shingles:  shingleSet(tokens, e.shingleSize),
		})
	}
	return out
}

// normalizedRange returns the normalized token texts between two lines.
func normalizedRange(tokens []source.Token, startLine, endLine int) []string {
	var out []string
	for _, tok := range tokens {
		if tok.Line < startLine || tok.Line > endLine {
			continue
		}
		out = append(out, tok.Normalized())
	}
	return out
}

// shingleSet hashes every sliding window of size tokens with FNV-64a.
func shingleSet(tokens []string, size int) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(tokens))
	for i := 0; i+size <= len(tokens); i++ {
		h := fnv.New64a()
		for j, text := range tokens[i : i+size] {
			if j > 0 {
				h.Write([]byte{0x1f})
			}
			h.Write([]byte(text))
		}
		set[h.Sum64()] = struct{}{}
	}
	return set
}

// jaccard is |A∩B| / |A∪B| over two shingle sets.
func jaccard(a, b map[uint64]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	intersection := 0
	for h := range a {
		if _, ok := b[h]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// signature folds a shingle set into one representative hash. Sorting
// first keeps it stable across map iteration order.
func signature(shingles map[uint64]struct{}) uint64 {
	hashes := make([]uint64, 0, len(shingles))
	for h := range shingles {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, v := range hashes {
		for i := 0; i < 8; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf)
	}
	return h.Sum64()
}

// unionFind merges spans transitively so clusters never overlap. Each
// root tracks the weakest similarity that joined its component.
type unionFind struct {
	parent []int
	minSim []float64
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		minSim: make([]float64, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.minSim[i] = 1.0
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int, sim float64) {
	ra, rb := u.find(a), u.find(b)
	merged := u.minSim[ra]
	if u.minSim[rb] < merged {
		merged = u.minSim[rb]
	}
	if sim < merged {
		merged = sim
	}
	if ra != rb {
		u.parent[rb] = ra
	}
	u.minSim[ra] = merged
}
