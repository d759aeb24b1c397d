package search

import (
	"math"
	"sort"

	"github.com/soundprediction/engram/pkg/utils"
)

// RRF fuses ranked UUID lists with reciprocal rank fusion: each list
// contributes 1/(rank+k) for its members and the summed scores order the
// union. Ties keep first-seen order.
func RRF(rankings [][]string, rankConstant int) ([]string, []float64) {
	if rankConstant <= 0 {
		rankConstant = DefaultRankConstant
	}

	scores := make(map[string]float64)
	order := make([]string, 0)
	for _, ranking := range rankings {
		for rank, uuid := range ranking {
			if _, seen := scores[uuid]; !seen {
				order = append(order, uuid)
			}
			scores[uuid] += 1.0 / float64(rank+rankConstant)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	fusedScores := make([]float64, len(order))
	for i, uuid := range order {
		fusedScores[i] = scores[uuid]
	}
	return order, fusedScores
}

// MMRCandidate pairs a result UUID with its stored embedding.
type MMRCandidate struct {
	UUID      string
	Embedding []float32
}

// MMR orders candidates by maximal marginal relevance. Each candidate
// scores lambda times its similarity to the query minus (1-lambda) times
// its strongest similarity to any other candidate, so near-duplicates
// sink. Vectors are L2-normalized before comparison; ties keep the given
// order.
func MMR(queryVector []float32, candidates []MMRCandidate, lambda float64) ([]string, []float64) {
	if lambda == 0 {
		lambda = DefaultMMRLambda
	}
	if len(candidates) == 0 {
		return []string{}, []float64{}
	}

	query := utils.NormalizeL2(queryVector)
	normalized := make([][]float32, len(candidates))
	for i, candidate := range candidates {
		normalized[i] = utils.NormalizeL2(candidate.Embedding)
	}

	order := make([]int, len(candidates))
	scores := make([]float64, len(candidates))
	for i := range candidates {
		order[i] = i
		relevance := utils.DotProduct(query, normalized[i])
		redundancy := 0.0
		for j := range candidates {
			if j == i {
				continue
			}
			if sim := utils.DotProduct(normalized[i], normalized[j]); sim > redundancy {
				redundancy = sim
			}
		}
		scores[i] = lambda*relevance - (1-lambda)*redundancy
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	uuids := make([]string, len(order))
	mmrScores := make([]float64, len(order))
	for i, idx := range order {
		uuids[i] = candidates[idx].UUID
		mmrScores[i] = scores[idx]
	}
	return uuids, mmrScores
}

// RerankByNodeDistance orders UUIDs by graph distance from a center node,
// nearest first. The center itself leads when present. UUIDs missing from
// the distance map are unreachable and sort last, keeping their given
// order.
func RerankByNodeDistance(uuids []string, centerUUID string, distances map[string]int) []string {
	ordered := make([]string, 0, len(uuids))
	rest := make([]string, 0, len(uuids))
	for _, uuid := range uuids {
		if uuid == centerUUID {
			ordered = append(ordered, uuid)
			continue
		}
		rest = append(rest, uuid)
	}

	sort.SliceStable(rest, func(i, j int) bool {
		return distanceOf(rest[i], distances) < distanceOf(rest[j], distances)
	})

	return append(ordered, rest...)
}

func distanceOf(uuid string, distances map[string]int) float64 {
	if d, ok := distances[uuid]; ok {
		return float64(d)
	}
	return math.Inf(1)
}

// RerankByEpisodeMentions orders UUIDs by how many episodes mention them,
// most-mentioned first. Ties keep the given order.
func RerankByEpisodeMentions(uuids []string, mentions map[string]int) []string {
	ordered := make([]string, len(uuids))
	copy(ordered, uuids)
	sort.SliceStable(ordered, func(i, j int) bool {
		return mentions[ordered[i]] > mentions[ordered[j]]
	})
	return ordered
}
