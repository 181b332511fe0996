// Package types holds the data shapes exchanged between the analytics endpoint,
// the chart registry and the exporters.
//
// The analytics service returns JSON objects whose key order carries meaning
// (top skills ranked, weeks chronological), so every mapping here is an ordered
// slice rather than a Go map.
package types

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when an analytics body does not have the
// {top_skills, jobs_by_city, jobs_by_week, sentiment_by_city} object shape.
var ErrMalformedPayload = errors.New("malformed analytics payload")

// Point is one labelled value of a ChartDataset.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartDataset maps a category label to a numeric value in server order.
type ChartDataset []Point

// Labels returns the category labels in order.
func (d ChartDataset) Labels() []string {
	out := make([]string, len(d))
	for i, p := range d {
		out[i] = p.Label
	}
	return out
}

// Values returns the numeric values in order.
func (d ChartDataset) Values() []float64 {
	out := make([]float64, len(d))
	for i, p := range d {
		out[i] = p.Value
	}
	return out
}

// WeekCount is one bucket of a TimeSeries.
type WeekCount struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

// TimeSeries maps a week identifier to a job count, in server order.
type TimeSeries []WeekCount

// Labels returns the week identifiers in order.
func (s TimeSeries) Labels() []string {
	out := make([]string, len(s))
	for i, w := range s {
		out[i] = w.Week
	}
	return out
}

// Values returns the counts as float64 for plotting.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, w := range s {
		out[i] = float64(w.Count)
	}
	return out
}

// CityScore is one city's average polarity score.
type CityScore struct {
	City  string  `json:"city"`
	Score float64 `json:"score"`
}

// SentimentSeries maps a city to its polarity score in [-1, 1].
type SentimentSeries []CityScore

// Labels returns the city names in order.
func (s SentimentSeries) Labels() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.City
	}
	return out
}

// Values returns the scores in order.
func (s SentimentSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Score
	}
	return out
}

// Sentiment is the three-way bucket of a polarity score.
type Sentiment int

const (
	Neutral Sentiment = iota
	Positive
	Negative
)

// Sentiment thresholds are strict: exactly ±0.1 stays neutral.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Classify buckets a polarity score.
func Classify(score float64) Sentiment {
	switch {
	case score > PositiveThreshold:
		return Positive
	case score < NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

func (s Sentiment) String() string {
	switch s {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// FilterState is the pair of filter controls. Empty means "no filter".
type FilterState struct {
	City string `json:"city"`
	Type string `json:"type"`
}

// IsZero reports whether no filter is set.
func (f FilterState) IsZero() bool { return f.City == "" && f.Type == "" }

// Payload is one analytics response.
type Payload struct {
	TopSkills       ChartDataset    `json:"top_skills"`
	JobsByCity      ChartDataset    `json:"jobs_by_city"`
	JobsByWeek      TimeSeries      `json:"jobs_by_week"`
	SentimentByCity SentimentSeries `json:"sentiment_by_city"`
}

// Empty reports whether the payload matched no jobs (no top skills).
func (p Payload) Empty() bool { return len(p.TopSkills) == 0 }

// Payload JSON keys.
const (
	KeyTopSkills       = "top_skills"
	KeyJobsByCity      = "jobs_by_city"
	KeyJobsByWeek      = "jobs_by_week"
	KeySentimentByCity = "sentiment_by_city"
)

// DecodePayload parses an analytics body keeping each object's key order.
// Values are not validated: gjson's numeric coercion applies, so numeric
// strings parse and anything else reads as 0.
func DecodePayload(body []byte) (Payload, error) {
	if !gjson.ValidBytes(body) {
		return Payload{}, fmt.Errorf("%w: invalid json", ErrMalformedPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Payload{}, fmt.Errorf("%w: body is not an object", ErrMalformedPayload)
	}
	objs := make(map[string]gjson.Result, 4)
	for _, key := range []string{KeyTopSkills, KeyJobsByCity, KeyJobsByWeek, KeySentimentByCity} {
		v := root.Get(key)
		if !v.Exists() {
			return Payload{}, fmt.Errorf("%w: missing %q", ErrMalformedPayload, key)
		}
		if !v.IsObject() {
			return Payload{}, fmt.Errorf("%w: %q is not an object", ErrMalformedPayload, key)
		}
		objs[key] = v
	}
	var p Payload
	p.TopSkills = decodeDataset(objs[KeyTopSkills])
	p.JobsByCity = decodeDataset(objs[KeyJobsByCity])
	eachOrdered(objs[KeyJobsByWeek], func(k string, v gjson.Result, idx int) {
		if idx >= 0 {
			p.JobsByWeek[idx].Count = int(v.Int())
			return
		}
		p.JobsByWeek = append(p.JobsByWeek, WeekCount{Week: k, Count: int(v.Int())})
	})
	eachOrdered(objs[KeySentimentByCity], func(k string, v gjson.Result, idx int) {
		if idx >= 0 {
			p.SentimentByCity[idx].Score = v.Float()
			return
		}
		p.SentimentByCity = append(p.SentimentByCity, CityScore{City: k, Score: v.Float()})
	})
	return p, nil
}

func decodeDataset(obj gjson.Result) ChartDataset {
	var d ChartDataset
	eachOrdered(obj, func(k string, v gjson.Result, idx int) {
		if idx >= 0 {
			d[idx].Value = v.Float()
			return
		}
		d = append(d, Point{Label: k, Value: v.Float()})
	})
	return d
}

// eachOrdered walks obj in document order. idx is the position of an earlier
// occurrence of the same key, or -1 the first time a key is seen.
func eachOrdered(obj gjson.Result, fn func(key string, v gjson.Result, idx int)) {
	seen := map[string]int{}
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if i, ok := seen[key]; ok {
			fn(key, v, i)
			return true
		}
		seen[key] = len(seen)
		fn(key, v, -1)
		return true
	})
}
