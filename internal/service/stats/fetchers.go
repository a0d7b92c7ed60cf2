package stats

import (
	"strconv"
	"time"

	"github.com/osm-campaigns/dashboard/internal/models"
	"github.com/osm-campaigns/dashboard/internal/osmose"
)

// Response fields.
const (
	FieldTasksSolved    = "tasksSolved"
	FieldNotesClosed    = "notesClosed"
	FieldFeaturesChange = "featuresChange"
	FieldFeaturesCount  = "featuresCount"
	FieldNbContributors = "nbContributors"
	FieldLeaderboard    = "leaderboard"
)

// Chart ids.
const (
	ChartOsmose = "osmose"
	ChartNotes  = "notes"
	ChartCount  = "count"
	ChartKeys   = "keys"
)

// keyShareThreshold is the minimum share of the most used tag key a key needs to be charted.
const keyShareThreshold = 0.1

// osmoseFragment builds the osmose chart from one sample list per source, in source order.
// tasksSolved is only reported when every series has data.
func osmoseFragment(sources []models.DataSource, samples [][]osmose.Sample) Fragment {
	series := make([]Series, len(sources))
	complete := len(sources) > 0
	var first, last float64

	for i, ds := range sources {
		data := make([]Point, 0, len(samples[i]))
		for _, s := range samples[i] {
			data = append(data, Point{T: s.Date, Y: s.Count})
		}
		series[i] = Series{Label: ds.Name, Color: colorOr(ds.Color), Data: data}

		if len(data) == 0 {
			complete = false
			continue
		}
		first += data[0].Y
		last += data[len(data)-1].Y
	}

	f := Fragment{Charts: []Chart{{ID: ChartOsmose, Kind: KindLine, Series: series}}}
	if complete {
		f.Fields = map[string]any{FieldTasksSolved: first - last}
	}
	return f
}

func notesFragment(rows []models.NoteCount) Fragment {
	open := Series{Label: "open", Color: ColorOpen, Data: make([]Point, 0, len(rows))}
	closed := Series{Label: "closed", Color: ColorClosed, Data: make([]Point, 0, len(rows))}
	for _, r := range rows {
		t := r.Timestamp.UTC().Format(time.RFC3339)
		open.Data = append(open.Data, Point{T: t, Y: float64(r.Open)})
		closed.Data = append(closed.Data, Point{T: t, Y: float64(r.Closed)})
	}

	f := Fragment{Charts: []Chart{{ID: ChartNotes, Kind: KindLine, Series: []Series{open, closed}}}}
	if len(rows) > 0 {
		f.Fields = map[string]any{FieldNotesClosed: rows[len(rows)-1].Closed > 0}
	}
	return f
}

func countFragment(label string, rows []models.FeatureCount) Fragment {
	if label == "" {
		label = "features"
	}
	series := Series{Label: label, Color: DefaultColor, Data: make([]Point, 0, len(rows))}
	for _, r := range rows {
		series.Data = append(series.Data, Point{T: r.Timestamp.UTC().Format(time.RFC3339), Y: float64(r.Amount)})
	}

	f := Fragment{Charts: []Chart{{ID: ChartCount, Kind: KindLine, Series: []Series{series}}}}
	if len(rows) > 0 {
		f.Fields = map[string]any{FieldFeaturesChange: rows[len(rows)-1].Amount - rows[0].Amount}
	}
	return f
}

func totalFragment(total int64, ok bool) Fragment {
	if !ok {
		return Fragment{}
	}
	return Fragment{Fields: map[string]any{FieldFeaturesCount: total}}
}

// leaderboardFragment always reports the contributor count; rows are only exposed to an identified caller.
func leaderboardFragment(rows []models.LeaderboardEntry, osmUser string) Fragment {
	fields := map[string]any{FieldNbContributors: len(rows)}
	if osmUser != "" {
		if rows == nil {
			rows = []models.LeaderboardEntry{}
		}
		fields[FieldLeaderboard] = rows
	}
	return Fragment{Fields: fields}
}

// keysFragment charts the tag keys used by at least a tenth as many features as the top key.
// rows must be sorted by count descending.
func keysFragment(rows []models.TagKeyCount) Fragment {
	labels := []string{}
	series := Series{Label: "keys", Color: DefaultColor, Data: []Point{}}

	if len(rows) > 0 {
		threshold := float64(rows[0].Count) * keyShareThreshold
		for _, r := range rows {
			if float64(r.Count) < threshold {
				continue
			}
			labels = append(labels, r.Key)
			series.Data = append(series.Data, Point{T: r.Key, Y: float64(r.Count)})
		}
	}

	return Fragment{Charts: []Chart{{ID: ChartKeys, Kind: KindBar, Labels: labels, Series: []Series{series}}}}
}

func osmoseQuery(ds models.DataSource) osmose.Query {
	return osmose.Query{Item: ds.Item, Class: ds.Class, Country: ds.Country}
}

func sourceLabel(i int, ds models.DataSource) string {
	if ds.Name != "" {
		return ds.Name
	}
	return "source " + strconv.Itoa(i)
}
