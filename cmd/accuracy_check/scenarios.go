package main

import (
	"context"

	"ulasan/internal/domain"
)

// Scenario es un texto etiquetado a mano con su sentimiento esperado.
type Scenario struct {
	Input    string
	Expected domain.SentimentLabel
}

var reviewScenarios = []Scenario{
	{Input: "Pelayanan di restoran ini sangat memuaskan, makanannya lezat dan pelayannya ramah.", Expected: domain.SentimentPositive},
	{Input: "Aplikasi ini sangat membantu pekerjaan saya, fiturnya lengkap dan mudah digunakan.", Expected: domain.SentimentPositive},
	{Input: "Suka banget sama produk ini, kualitasnya oke punya!", Expected: domain.SentimentPositive},
	{Input: "Saya sangat kecewa dengan pelayanan toko ini, pengiriman lambat dan barang rusak.", Expected: domain.SentimentNegative},
	{Input: "Makanannya tidak enak, hambar dan harganya terlalu mahal.", Expected: domain.SentimentNegative},
	{Input: "Aplikasi ini sering crash dan sangat lambat, tolong diperbaiki segera.", Expected: domain.SentimentNegative},
	{Input: "Saya membeli buku ini di toko buku kemarin sore.", Expected: domain.SentimentNeutral},
	{Input: "Hari ini cuaca cukup cerah dengan sedikit awan.", Expected: domain.SentimentNeutral},
	{Input: "Pertemuan akan diadakan pada hari Senin pukul 10 pagi.", Expected: domain.SentimentNeutral},
}

var slangScenarios = []Scenario{
	{Input: "Gokil abis videonya!", Expected: domain.SentimentPositive},
	{Input: "Mantul gan, makasih infonya", Expected: domain.SentimentPositive},
	{Input: "Suka bgt sm penjelasannya", Expected: domain.SentimentPositive},
	{Input: "Valid no debat", Expected: domain.SentimentPositive},
	{Input: "Gajelas lu min", Expected: domain.SentimentNegative},
	{Input: "B aja sih menurut gw", Expected: domain.SentimentNeutral},
	{Input: "Dih apaan sih cringe", Expected: domain.SentimentNegative},
	{Input: "Skip dulu deh", Expected: domain.SentimentNegative},
	{Input: "Zonk parah", Expected: domain.SentimentNegative},
	{Input: "Nitip sendal", Expected: domain.SentimentNeutral},
	{Input: "Info loker", Expected: domain.SentimentNeutral},
	{Input: "Cek dm min", Expected: domain.SentimentNeutral},
}

type predictor interface {
	Predict(ctx context.Context, text string) (domain.PredictionResult, error)
}

// Outcome es el resultado de un escenario.
type Outcome struct {
	Scenario Scenario
	Actual   domain.PredictionResult
	Err      error
}

func (o Outcome) Passed() bool {
	return o.Err == nil && o.Actual.Label == o.Scenario.Expected
}

// evaluate corre todos los escenarios; un error en uno no detiene el resto.
func evaluate(ctx context.Context, p predictor, scenarios []Scenario) (outcomes []Outcome, passed int) {
	for _, sc := range scenarios {
		pred, err := p.Predict(ctx, sc.Input)
		o := Outcome{Scenario: sc, Actual: pred, Err: err}
		if o.Passed() {
			passed++
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, passed
}
