package models

import "time"

// Quote is a snapshot from the external quote provider. A missing quote means
// "skip this instrument this round", never a zero price.
type Quote struct {
	ScripCode     string
	CompanyName   string
	CurrentPrice  float64
	Open          float64
	High          float64
	Low           float64
	PrevClose     float64
	Change        float64
	ChangePercent float64
	Volume        int64
	UpdatedOn     string
}

// PriceBar is one day of OHLCV history recorded for an instrument.
type PriceBar struct {
	ScripCode string
	Date      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	Source    string
}
