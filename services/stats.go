package services

import (
	"iter"
	"sort"

	"weblog-stats/models"
	"weblog-stats/utils"
)

type StatsService struct {
	logger *utils.Logger
}

func NewStatsService(logger *utils.Logger) *StatsService {
	return &StatsService{logger: logger}
}

// Generate folds records into a StatsReport in a single pass.
func (s *StatsService) Generate(records iter.Seq[models.Record]) *models.StatsReport {
	report := &models.StatsReport{
		ByBrowser: make(map[models.Browser]int),
		ByHour:    make(map[int]int),
	}

	for rec := range records {
		report.TotalRequests++
		if IsImage(rec.Path) {
			report.ImageRequests++
		}
		report.ByBrowser[ClassifyBrowser(rec.UserAgent)]++
		if rec.HasTimestamp() {
			report.ByHour[rec.Timestamp.Hour()]++
		}
	}

	if report.TotalRequests == 0 {
		s.logger.Warn("[stats] No records to aggregate")
		return report
	}

	report.ImagePercent = 100 * float64(report.ImageRequests) / float64(report.TotalRequests)
	report.MostPopular = mostPopular(report.ByBrowser)
	report.Hours = sortedHours(report.ByHour)

	s.logger.Info("[stats] %s requests, %s images, %d hours with timestamps",
		utils.FormatCount(report.TotalRequests), utils.FormatCount(report.ImageRequests), len(report.Hours))
	return report
}

// mostPopular picks the named browser with the most hits. Other is never
// eligible. Ties go to the earlier entry of models.NamedBrowsers.
func mostPopular(byBrowser map[models.Browser]int) models.Browser {
	var best models.Browser
	bestHits := 0
	for _, b := range models.NamedBrowsers {
		if hits := byBrowser[b]; hits > bestHits {
			best, bestHits = b, hits
		}
	}
	return best
}

func sortedHours(byHour map[int]int) []models.HourCount {
	hours := make([]models.HourCount, 0, len(byHour))
	for h, hits := range byHour {
		hours = append(hours, models.HourCount{Hour: h, Hits: hits})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Hits != hours[j].Hits {
			return hours[i].Hits > hours[j].Hits
		}
		return hours[i].Hour < hours[j].Hour
	})
	return hours
}
