package service

import (
	"testing"
	"time"

	"github.com/coinvo/funnel-api/internal/repository"
)

func TestResolveDashboardWindowDefaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	start, end, err := resolveDashboardWindow(DashboardQueryInput{}, now)
	if err != nil {
		t.Fatalf("resolve default window failed: %v", err)
	}
	if !end.Equal(now) {
		t.Fatalf("expected end=now, got %v", end)
	}
	if !start.Equal(now.AddDate(0, 0, -30)) {
		t.Fatalf("expected start 30 days before now, got %v", start)
	}
}

func TestResolveDashboardWindowExplicit(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	start, end, err := resolveDashboardWindow(DashboardQueryInput{
		StartDate: "2026-08-01",
		EndDate:   "2026-08-15",
	}, now)
	if err != nil {
		t.Fatalf("resolve explicit window failed: %v", err)
	}
	if !start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	// end_date 当天全量纳入，上界为次日零点的开区间
	if !end.Equal(time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}

	// 同一天也是合法窗口
	if _, _, err := resolveDashboardWindow(DashboardQueryInput{
		StartDate: "2026-08-15",
		EndDate:   "2026-08-15",
	}, now); err != nil {
		t.Fatalf("single day window should be valid: %v", err)
	}
}

func TestResolveDashboardWindowInvalid(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	cases := []DashboardQueryInput{
		{StartDate: "not-a-date"},
		{EndDate: "2026/08/15"},
		{StartDate: "2026-08-20", EndDate: "2026-08-10"},
	}
	for _, input := range cases {
		if _, _, err := resolveDashboardWindow(input, now); err != ErrDashboardRangeInvalid {
			t.Fatalf("expected ErrDashboardRangeInvalid for %+v, got %v", input, err)
		}
	}
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		numerator   int64
		denominator int64
		expected    float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 2, 50},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{7, 7, 100},
	}
	for _, tc := range cases {
		if got := percentOf(tc.numerator, tc.denominator); got != tc.expected {
			t.Fatalf("percentOf(%d, %d): expected %v, got %v", tc.numerator, tc.denominator, tc.expected, got)
		}
	}
}

func TestMergeSourceStats(t *testing.T) {
	linkStats := []repository.SourceStat{
		{Source: "tiktok", Visitors: 100, Clicks: 150},
		{Source: "youtube", Visitors: 40, Clicks: 60},
	}
	signupStats := []repository.SourceStat{
		{Source: "youtube", Signups: 12},
		{Source: "telegram", Signups: 7},
	}

	merged := mergeSourceStats(linkStats, signupStats)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged sources, got %d", len(merged))
	}
	if merged[0].Source != "tiktok" || merged[1].Source != "youtube" || merged[2].Source != "telegram" {
		t.Fatalf("unexpected order: %q %q %q", merged[0].Source, merged[1].Source, merged[2].Source)
	}
	if merged[1].Visitors != 40 || merged[1].Clicks != 60 || merged[1].Signups != 12 {
		t.Fatalf("expected youtube 40/60/12, got %d/%d/%d", merged[1].Visitors, merged[1].Clicks, merged[1].Signups)
	}
	// 仅有注册归因没有点击的来源以零访问保留
	if merged[2].Visitors != 0 || merged[2].Clicks != 0 || merged[2].Signups != 7 {
		t.Fatalf("expected telegram 0/0/7, got %d/%d/%d", merged[2].Visitors, merged[2].Clicks, merged[2].Signups)
	}
}

func TestMergeSourceStatsStableOnTies(t *testing.T) {
	linkStats := []repository.SourceStat{
		{Source: "tiktok", Visitors: 10},
		{Source: "youtube", Visitors: 10},
	}
	merged := mergeSourceStats(linkStats, nil)
	if merged[0].Source != "tiktok" || merged[1].Source != "youtube" {
		t.Fatalf("expected stable order on equal visitors, got %q %q", merged[0].Source, merged[1].Source)
	}
}
