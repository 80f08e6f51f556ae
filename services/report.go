package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"art-arbitrage/models"
	"art-arbitrage/utils"
)

// ReportService computes aggregate statistics over a valuated scan.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

// Generate builds the scan report from a valuated result set and the
// per-source extraction counts.
func (s *ReportService) Generate(listings []*models.ValuatedListing, counts map[models.Source]int) *models.ScanReport {
	report := &models.ScanReport{
		CountsBySource: make(map[models.Source]int, len(counts)),
		CountsByAction: make(map[models.Recommendation]int),
	}
	for src, n := range counts {
		report.CountsBySource[src] = n
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var marginTotal int
	for _, l := range listings {
		if l.ValuedByAI {
			report.AIValuedCount++
		}
		report.CountsByAction[l.Recommendation]++
		marginTotal += l.ProfitMargin
	}
	report.AverageMargin = round2(float64(marginTotal) / float64(len(listings)))

	// Top 5 buys by margin
	var buys []*models.ValuatedListing
	for _, l := range listings {
		if l.Recommendation == models.RecommendBuy {
			buys = append(buys, l)
		}
	}
	sort.Slice(buys, func(i, j int) bool {
		return buys[i].ProfitMargin > buys[j].ProfitMargin
	})
	if len(buys) > 5 {
		buys = buys[:5]
	}
	report.BestBuys = buys

	return report
}

// Print renders the report to the terminal.
func (s *ReportService) Print(r *models.ScanReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  ART AUCTION ARBITRAGE SCAN\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings valuated : \033[1m%d\033[0m\n", r.TotalListings)
	fmt.Printf("  AI valuations     : \033[1m%d\033[0m\n", r.AIValuedCount)
	fmt.Printf("  Average margin    : \033[1m%.2f%%\033[0m\n", r.AverageMargin)
	fmt.Println()

	fmt.Printf("\033[1;33m  Records per Source\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.CountsBySource) == 0 {
		fmt.Printf("  No sources scanned\n")
	} else {
		type srcCount struct {
			src   models.Source
			count int
		}
		var srcs []srcCount
		for src, cnt := range r.CountsBySource {
			srcs = append(srcs, srcCount{src, cnt})
		}
		sort.Slice(srcs, func(i, j int) bool { return srcs[i].count > srcs[j].count })
		for _, sc := range srcs {
			bar := strings.Repeat("█", sc.count)
			fmt.Printf("  %-20s %s (%d)\n", sc.src, bar, sc.count)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Recommendations\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Buy   : \033[1;32m%d\033[0m\n", r.CountsByAction[models.RecommendBuy])
	fmt.Printf("  Hold  : \033[1;33m%d\033[0m\n", r.CountsByAction[models.RecommendHold])
	fmt.Printf("  Avoid : \033[1;31m%d\033[0m\n", r.CountsByAction[models.RecommendAvoid])
	fmt.Println()

	fmt.Printf("\033[1;33m  Top Buy Opportunities\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.BestBuys) == 0 {
		fmt.Printf("  No buy recommendations this scan\n")
	} else {
		for i, l := range r.BestBuys {
			fmt.Printf("  \033[1m%d.\033[0m %-38s \033[1;32m+%d%%\033[0m ($%d → $%d)\n",
				i+1, truncate(l.Title, 36), l.ProfitMargin, l.AskingPrice, l.EstimatedValue)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// round2 rounds to two decimals; margins can be negative.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
