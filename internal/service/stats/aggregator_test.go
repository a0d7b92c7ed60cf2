package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/osmose"
	"github.com/osm-campaigns/dashboard/pkg/logger"
	"github.com/osm-campaigns/dashboard/test/mocks"
)

func testProject() *models.Project {
	return &models.Project{
		ID: "2024_03_demo_foo",
		DataSources: []models.DataSource{
			{Source: models.SourceOsmose, Name: "Missing", Item: "8180", Color: "#ff0000"},
			{Source: models.SourceOsmose, Name: "Wrong", Item: "8190"},
			{Source: models.SourceNotes, Name: "Notes"},
			{Source: models.SourceBackground, Name: "Imagery", URL: "https://tiles"},
		},
		Statistics: models.StatisticsConfig{Count: true, FeatureName: "fountains"},
	}
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func fullRepo() *mocks.MockStatsRepository {
	return &mocks.MockStatsRepository{
		NoteCountsFunc: func(_ context.Context, project string) ([]models.NoteCount, error) {
			return []models.NoteCount{
				{Project: project, Timestamp: day(1), Open: 5, Closed: 0},
				{Project: project, Timestamp: day(2), Open: 2, Closed: 3},
			}, nil
		},
		FeatureCountsFunc: func(_ context.Context, _ string) ([]models.FeatureCount, error) {
			return []models.FeatureCount{{Timestamp: day(1), Amount: 100}, {Timestamp: day(3), Amount: 130}}, nil
		},
		FeatureTotalFunc: func(_ context.Context, suffix string) (int64, error) {
			if suffix != "foo" {
				return 0, errors.New("unexpected suffix " + suffix)
			}
			return 131, nil
		},
		LeaderboardFunc: func(_ context.Context, _ string) ([]models.LeaderboardEntry, error) {
			return []models.LeaderboardEntry{
				{UserID: 1, Username: "alice", Pos: 1, Score: 30},
				{UserID: 2, Username: "bob", Pos: 2, Score: 10},
			}, nil
		},
		TagKeysFunc: func(_ context.Context, _ string) ([]models.TagKeyCount, error) {
			return []models.TagKeyCount{{Key: "amenity", Count: 100}, {Key: "name", Count: 10}, {Key: "note", Count: 9}}, nil
		},
	}
}

func fullOsmose() *mocks.MockOsmoseClient {
	return &mocks.MockOsmoseClient{
		StatsFunc: func(_ context.Context, q osmose.Query) ([]osmose.Sample, error) {
			if q.Item == "8180" {
				return []osmose.Sample{{Date: "2024-03-01", Count: 10}, {Date: "2024-03-02", Count: 4}}, nil
			}
			return []osmose.Sample{{Date: "2024-03-01", Count: 6}, {Date: "2024-03-02", Count: 5}}, nil
		},
	}
}

func chartIDs(result map[string]any) []string {
	var ids []string
	for _, c := range result[ChartKey].([]Chart) {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestAggregate_AllFetches(t *testing.T) {
	svc := NewServiceWithInterfaces(fullRepo(), fullOsmose(), time.Second, logger.Nop())

	result := svc.Aggregate(context.Background(), testProject(), "alice")

	assert.Equal(t, []string{ChartOsmose, ChartNotes, ChartCount, ChartKeys}, chartIDs(result))
	assert.Equal(t, float64(7), result[FieldTasksSolved], "(10+6)-(4+5)")
	assert.Equal(t, true, result[FieldNotesClosed])
	assert.Equal(t, int64(30), result[FieldFeaturesChange])
	assert.Equal(t, int64(131), result[FieldFeaturesCount])
	assert.Equal(t, 2, result[FieldNbContributors])
	assert.Len(t, result[FieldLeaderboard], 2)

	charts := result[ChartKey].([]Chart)
	osm := charts[0]
	require.Len(t, osm.Series, 2)
	assert.Equal(t, "#ff0000", osm.Series[0].Color)
	assert.Equal(t, DefaultColor, osm.Series[1].Color)
	assert.Equal(t, "Wrong", osm.Series[1].Label)

	notes := charts[1]
	require.Len(t, notes.Series, 2)
	assert.Equal(t, ColorOpen, notes.Series[0].Color)
	assert.Equal(t, ColorClosed, notes.Series[1].Color)
	assert.Equal(t, Point{T: "2024-03-02T00:00:00Z", Y: 3}, notes.Series[1].Data[1])

	assert.Equal(t, "fountains", charts[2].Series[0].Label)

	keys := charts[3]
	assert.Equal(t, KindBar, keys.Kind)
	assert.Equal(t, []string{"amenity", "name"}, keys.Labels, "keys under a tenth of the top are dropped")
}

func TestAggregate_LeaderboardGated(t *testing.T) {
	svc := NewServiceWithInterfaces(fullRepo(), fullOsmose(), time.Second, logger.Nop())

	result := svc.Aggregate(context.Background(), testProject(), "")

	assert.Equal(t, 2, result[FieldNbContributors])
	_, ok := result[FieldLeaderboard]
	assert.False(t, ok, "leaderboard rows require osm_user")
}

func TestAggregate_OptionalFetchesSkipped(t *testing.T) {
	repo := fullRepo()
	client := fullOsmose()
	svc := NewServiceWithInterfaces(repo, client, time.Second, logger.Nop())

	p := &models.Project{ID: "demo_bar"}
	result := svc.Aggregate(context.Background(), p, "")

	assert.Equal(t, []string{ChartKeys}, chartIDs(result))
	assert.Empty(t, client.Queries)
	for _, k := range []string{FieldTasksSolved, FieldNotesClosed, FieldFeaturesChange, FieldFeaturesCount} {
		_, ok := result[k]
		assert.False(t, ok, k)
	}
}

func TestAggregate_FailingSourceDegrades(t *testing.T) {
	repo := fullRepo()
	repo.NoteCountsFunc = func(_ context.Context, _ string) ([]models.NoteCount, error) {
		return nil, errors.New("connection reset")
	}
	repo.FeatureTotalFunc = func(_ context.Context, _ string) (int64, error) {
		return 0, errors.New("relation does not exist")
	}
	client := &mocks.MockOsmoseClient{
		StatsFunc: func(_ context.Context, q osmose.Query) ([]osmose.Sample, error) {
			if q.Item == "8180" {
				return nil, errors.New("osmose down")
			}
			return []osmose.Sample{{Date: "2024-03-01", Count: 6}}, nil
		},
	}
	svc := NewServiceWithInterfaces(repo, client, time.Second, logger.Nop())

	result := svc.Aggregate(context.Background(), testProject(), "")

	assert.Equal(t, []string{ChartOsmose, ChartNotes, ChartCount, ChartKeys}, chartIDs(result))
	charts := result[ChartKey].([]Chart)
	assert.Empty(t, charts[0].Series[0].Data)
	assert.Len(t, charts[0].Series[1].Data, 1)
	assert.Empty(t, charts[1].Series[0].Data)

	_, ok := result[FieldTasksSolved]
	assert.False(t, ok, "derived totals need every series")
	_, ok = result[FieldNotesClosed]
	assert.False(t, ok)
	_, ok = result[FieldFeaturesCount]
	assert.False(t, ok)
	assert.Equal(t, int64(30), result[FieldFeaturesChange], "other fetches are unaffected")
}

func TestAggregate_SlowSourceTimesOut(t *testing.T) {
	client := &mocks.MockOsmoseClient{
		StatsFunc: func(ctx context.Context, _ osmose.Query) ([]osmose.Sample, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	svc := NewServiceWithInterfaces(fullRepo(), client, 50*time.Millisecond, logger.Nop())

	start := time.Now()
	result := svc.Aggregate(context.Background(), testProject(), "")

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(131), result[FieldFeaturesCount])
	_, ok := result[FieldTasksSolved]
	assert.False(t, ok)
}

func TestAggregate_ChartOrderIgnoresCompletionOrder(t *testing.T) {
	repo := fullRepo()
	// The first declared fetch finishes last.
	client := &mocks.MockOsmoseClient{
		StatsFunc: func(_ context.Context, _ osmose.Query) ([]osmose.Sample, error) {
			time.Sleep(30 * time.Millisecond)
			return []osmose.Sample{{Date: "2024-03-01", Count: 1}}, nil
		},
	}
	svc := NewServiceWithInterfaces(repo, client, time.Second, logger.Nop())

	result := svc.Aggregate(context.Background(), testProject(), "")
	assert.Equal(t, []string{ChartOsmose, ChartNotes, ChartCount, ChartKeys}, chartIDs(result))
}
