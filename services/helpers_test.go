package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"apppulse/models"
	"apppulse/storage"
	"apppulse/utils"
)

const sampleHeader = "App,Category,Type,Rating,Reviews,Installs_Clean,Price_Clean,Size_MB,sentiment_polarity_mean,positive_percentage,negative_percentage"

// sampleCSV has the three rows used throughout the filter examples, plus an
// unrated row.
const sampleCSV = sampleHeader + `
Alpha Chat,CatA,Free,4.5,500,100000,0,12.5,0.3,70,10
Beta Pay,CatA,Paid,3.0,50,1000,2.99,45,0.1,55,25
Gamma Maps,CatB,Free,4.0,2000,5000000,0,80,0.2,65,15
Delta Notes,CatB,Paid,,40,500,1.49,3.2,,,
`

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func loadSample(t *testing.T, csvText string) *models.Dataset {
	t.Helper()
	raw, err := storage.ReadCSV(strings.NewReader(csvText), ',')
	require.NoError(t, err)
	raw.Source = "sample.csv"
	ds, err := NewCleaner(newTestLogger()).Clean(raw)
	require.NoError(t, err)
	return ds
}

// threeRows is the dataset (CatA, Free, 4.5, 500), (CatA, Paid, 3.0, 50),
// (CatB, Free, 4.0, 2000).
func threeRows() models.Table {
	return models.Table{
		Columns: strings.Split(sampleHeader, ","),
		Records: []*models.AppRecord{
			{Row: 0, Name: "Alpha Chat", Category: "CatA", Type: models.TypeFree, Rating: models.SomeFloat(4.5), Reviews: models.SomeInt(500)},
			{Row: 1, Name: "Beta Pay", Category: "CatA", Type: models.TypePaid, Rating: models.SomeFloat(3.0), Reviews: models.SomeInt(50)},
			{Row: 2, Name: "Gamma Maps", Category: "CatB", Type: models.TypeFree, Rating: models.SomeFloat(4.0), Reviews: models.SomeInt(2000)},
		},
	}
}

func names(recs []*models.AppRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Name
	}
	return out
}
