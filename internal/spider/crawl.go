package spider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/ae-stats-spider/internal/links"
)

func (s *Spider) discover(ctx context.Context, logger *zap.Logger) (Discovery, error) {
	var disc Discovery

	basePage, err := s.fetchLinks(ctx, s.cfg.BaseURL, PageKindIndex)
	if err != nil {
		return Discovery{}, err
	}
	if disc.MonthlyPages, err = matching(s.cfg.BaseURL, basePage, indexMatcher(Monthly)); err != nil {
		return Discovery{}, err
	}
	if disc.WeeklyPages, err = matching(s.cfg.BaseURL, basePage, indexMatcher(Weekly)); err != nil {
		return Discovery{}, err
	}

	if disc.MonthlyData, err = s.collectData(ctx, logger, disc.MonthlyPages, Monthly); err != nil {
		return Discovery{}, err
	}
	if disc.WeeklyData, err = s.collectData(ctx, logger, disc.WeeklyPages, Weekly); err != nil {
		return Discovery{}, err
	}

	logger.Info("discovered sub-pages",
		zap.Strings("monthly_pages", disc.MonthlyPages),
		zap.Strings("weekly_pages", disc.WeeklyPages),
	)
	logger.Info("discovered monthly data files",
		zap.Int("count", len(disc.MonthlyData)),
		zap.Strings("urls", disc.MonthlyData),
	)
	logger.Info("discovered weekly data files",
		zap.Int("count", len(disc.WeeklyData)),
		zap.Strings("urls", disc.WeeklyData),
	)
	return disc, nil
}

// collectData visits every sub-page in order and flattens the matching data
// links. Duplicates across pages are kept.
func (s *Spider) collectData(
	ctx context.Context,
	logger *zap.Logger,
	pages []string,
	category Category,
) ([]string, error) {
	matcher := dataMatcher(category)
	out := []string{}
	for _, pageURL := range pages {
		pageLinks, err := s.fetchLinks(ctx, pageURL, PageKindSub)
		if err != nil {
			return nil, err
		}
		for _, l := range pageLinks {
			if !matcher.Match(l.Text) {
				continue
			}
			resolved, err := resolveURL(pageURL, l.Href)
			if err != nil {
				return nil, err
			}
			logger.Info("data link",
				zap.String("category", string(category)),
				zap.String("text", l.Text),
				zap.String("url", resolved),
			)
			out = append(out, resolved)
		}
	}
	return out, nil
}

func (s *Spider) fetchLinks(ctx context.Context, pageURL string, kind string) ([]links.Link, error) {
	body, err := s.deps.Fetcher.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	s.deps.Metrics.PageFetched(kind)
	pageLinks, err := links.Extract(body)
	if err != nil {
		return nil, fmt.Errorf("extract links from %s: %w", pageURL, err)
	}
	return pageLinks, nil
}

func matching(pageURL string, pageLinks []links.Link, m Matcher) ([]string, error) {
	out := []string{}
	for _, l := range pageLinks {
		if !m.Match(l.Text) {
			continue
		}
		resolved, err := resolveURL(pageURL, l.Href)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}
