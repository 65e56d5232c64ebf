package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/turtacn/pnet/internal/domain/models"
)

var (
	syntheticExploitCounts = []float64{5, 0, 2, 10, 0, 1, 5, 20, 0, 1}
	syntheticEpoch         = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
)

// GenerateSynthetic returns n reproducible records for the first configured asset.
// EPSS rises with the base score and the presence of a public exploit, plus noise.
func GenerateSynthetic(n int, seed int64, asset string) []models.VulnerabilityRecord {
	if asset == "" {
		asset = "Microsoft Windows Server 2019"
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x706e6574))

	records := make([]models.VulnerabilityRecord, n)
	for i := range records {
		base := 5 + rng.Float64()*5
		exploitability := 1 + rng.Float64()*9
		impact := 1 + rng.Float64()*9
		exploits := syntheticExploitCounts[i%len(syntheticExploitCounts)]
		published := syntheticEpoch.AddDate(0, 0, rng.IntN(4*365))

		epss := 0.1 + 0.12*(base-5) + 0.2*indicator(exploits > 0) + 0.1*(rng.Float64()-0.5)
		epss = math.Min(math.Max(epss, 0.1), 0.99)

		records[i] = models.VulnerabilityRecord{
			ID:                  uint(i + 1),
			CVEID:               fmt.Sprintf("CVE-SYN-%04d", i+1),
			Product:             asset,
			Vendor:              "Microsoft",
			BaseScore:           &base,
			ExploitabilityScore: &exploitability,
			ImpactScore:         &impact,
			ExploitCount:        &exploits,
			AttackVector:        "NETWORK",
			PublishedAt:         &published,
			EPSS:                &epss,
		}
	}
	return records
}

//Personal.AI order the ending
