// Package geo holds the pure scoring primitives used to rank candidate
// providers for a gig: great-circle distance, eligibility checks and the
// proximity/preference ranking score. Nothing in here touches storage.
package geo

import (
	"math"
	"sort"

	"github.com/RichardAwuor/Nyota-KE-sub000/internal/model"
)

const earthRadiusKm = 6371

// MaxMatches caps the ranked suggestion list returned for a new gig.
const MaxMatches = 5

// Match pairs a provider with its computed distance and ranking score.
type Match struct {
	Provider   model.Provider
	DistanceKm float64
	Score      float64
}

// HaversineKm returns the great-circle distance between two coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// GenderSatisfied reports whether a provider satisfies a gig's gender
// preference. An empty or "none" preference accepts everyone.
func GenderSatisfied(preferred, gender string) bool {
	return preferred == "" || preferred == model.GenderNone || preferred == gender
}

// Eligible reports whether the provider may take the gig at all, and the
// distance between them. A provider is eligible iff its subscription is
// active, both coordinate pairs are present, the distance is within the
// provider's commute range and the gig's gender preference is satisfied.
func Eligible(gig *model.Gig, p *model.Provider) (distanceKm float64, ok bool) {
	if p.SubscriptionStatus != model.SubscriptionActive {
		return 0, false
	}
	if !gig.HasLocation() || !p.HasLocation() {
		return 0, false
	}
	if !GenderSatisfied(gig.PreferredGender, p.Gender) {
		return 0, false
	}
	d := HaversineKm(*gig.Latitude, *gig.Longitude, *p.Latitude, *p.Longitude)
	if d > float64(p.CommuteDistanceKm) {
		return d, false
	}
	return d, true
}

// Score computes the ranking value for an eligible candidate. Proximity
// dominates; a satisfied gender preference adds a flat bonus (a "none"
// preference always counts as satisfied).
func Score(distanceKm float64, genderMatch bool) float64 {
	score := math.Max(0, 100-distanceKm*10)
	if genderMatch {
		score += 50
	}
	return score
}

// Rank filters the provider pool down to eligible candidates and returns up
// to max of them, best first. Ordering is deterministic: score descending,
// then distance ascending, then provider id ascending.
func Rank(gig *model.Gig, providers []model.Provider, max int) []Match {
	matches := make([]Match, 0, len(providers))
	for _, p := range providers {
		d, ok := Eligible(gig, &p)
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Provider:   p,
			DistanceKm: d,
			Score:      Score(d, GenderSatisfied(gig.PreferredGender, p.Gender)),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].DistanceKm != matches[j].DistanceKm {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Provider.ID < matches[j].Provider.ID
	})

	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}
	return matches
}

// EligibleProviders returns every provider in the pool that may take the
// gig, without ranking or truncation. Used for the broadcast fan-out.
func EligibleProviders(gig *model.Gig, providers []model.Provider) []model.Provider {
	var out []model.Provider
	for _, p := range providers {
		if _, ok := Eligible(gig, &p); ok {
			out = append(out, p)
		}
	}
	return out
}
