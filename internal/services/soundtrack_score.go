package services

import (
	"strconv"
	"strings"

	"github.com/filmatlas/filmatlas/internal/spotify"
)

// disqualified marks a candidate whose name does not contain the title; no
// bonus can rescue it.
const disqualified = -1 << 62

// scoreCandidate rates a search result against the wanted title and release
// year. Name bonuses are additive; the year bonus shrinks with distance from
// the target year and is skipped entirely when either year is unknown.
func scoreCandidate(c spotify.Candidate, title string, year int, yearKnown bool) int {
	name := strings.ToLower(c.Name)
	target := strings.ToLower(title)

	if !strings.Contains(name, target) {
		return disqualified
	}

	score := 0
	if strings.Contains(name, "soundtrack") {
		score += 100
	}
	if strings.Contains(name, "motion picture") {
		score += 90
	}
	if strings.Contains(name, "original score") {
		score += 80
	}

	if yearKnown && len(c.ReleaseDate) >= 4 {
		if candidateYear, err := strconv.Atoi(c.ReleaseDate[:4]); err == nil {
			diff := candidateYear - year
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff == 0:
				score += 50
			case diff == 1:
				score += 30
			case diff <= 3:
				score += 10
			}
		}
	}

	return score
}

// pickBest scans albums then playlists in upstream order and returns the URL
// of the first candidate achieving the maximum score. Equal scores keep the
// earliest-seen candidate. When every candidate is disqualified the result is
// nil, which callers cache as an explicit no-match.
func pickBest(result *spotify.SearchResult, title string, year int, yearKnown bool) *string {
	best := disqualified
	var url *string

	scan := func(items []spotify.Candidate) {
		for _, c := range items {
			score := scoreCandidate(c, title, year, yearKnown)
			if score > best {
				best = score
				if link := c.ExternalURLs.Spotify; link != "" {
					url = &link
				} else {
					url = nil
				}
			}
		}
	}

	scan(result.Albums)
	scan(result.Playlists)

	if best == disqualified {
		return nil
	}
	return url
}
