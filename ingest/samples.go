package ingest

import (
	"fmt"
	"sort"

	"github.com/pivolan/stats_dashboard/domain/models"
)

type sampleColumn struct {
	name   string
	values []interface{}
}

var samples = map[string][]sampleColumn{
	"sales": {
		{"Product", []interface{}{"iPhone", "MacBook", "iPad", "Shoes", "Shirts", "Books"}},
		{"Category", []interface{}{"Electronics", "Electronics", "Electronics", "Fashion", "Fashion", "Education"}},
		{"Region", []interface{}{"North", "South", "East", "West", "North", "South"}},
		{"Sales", []interface{}{50000, 80000, 30000, 20000, 15000, 10000}},
		{"Units", []interface{}{100, 40, 150, 300, 500, 800}},
	},
	"students": {
		{"Student", []interface{}{"Ann", "Boris", "Chen", "Dana", "Emil", "Fatima", "Gus", "Hana"}},
		{"Class", []interface{}{"A", "A", "B", "B", "A", "C", "C", "B"}},
		{"Math", []interface{}{78, 92, 65, 88, 71, 95, 59, 84}},
		{"Physics", []interface{}{72, 89, 70, 91, 68, 97, 61, nil}},
		{"Hours", []interface{}{5.5, 8, 3, 7.5, 4, 9, 2.5, 6}},
	},
	"weather": {
		{"City", []interface{}{"Oslo", "Rome", "Cairo", "Lima", "Oslo", "Rome", "Cairo", "Lima"}},
		{"Season", []interface{}{"Winter", "Winter", "Winter", "Winter", "Summer", "Summer", "Summer", "Summer"}},
		{"TempC", []interface{}{-4.3, 8.1, 14.2, 22.5, 17.9, 30.4, 35.1, 16.8}},
		{"RainMM", []interface{}{49, 81, 5, 1, 81, 19, 0, 3}},
		{"Humidity", []interface{}{83, 75, 59, 79, 72, 48, 44, 84}},
	},
}

// SampleNames lists the built-in datasets in alphabetical order.
func SampleNames() []string {
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample builds a fresh copy of the named built-in dataset.
func Sample(name string) (models.Dataset, error) {
	cols, ok := samples[name]
	if !ok {
		return models.Dataset{}, fmt.Errorf("unknown sample %q", name)
	}
	columns := make([]models.Column, len(cols))
	for i, c := range cols {
		values := make([]models.Value, len(c.values))
		for j, raw := range c.values {
			switch v := raw.(type) {
			case nil:
				values[j] = models.MissingValue()
			case int:
				values[j] = models.NumberValue(float64(v))
			case float64:
				values[j] = models.NumberValue(v)
			case string:
				values[j] = models.TextValue(v)
			}
		}
		columns[i] = models.Column{Name: c.name, Values: values}
	}
	return models.NewDataset(columns...)
}

// Samples builds every built-in dataset keyed by name.
func Samples() map[string]models.Dataset {
	result := make(map[string]models.Dataset, len(samples))
	for _, name := range SampleNames() {
		d, err := Sample(name)
		if err != nil {
			continue
		}
		result[name] = d
	}
	return result
}
