package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/config"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/simulate"
)

// days of history replayed per demo site, oldest first
const days = 30

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	table := forecast.DefaultTable()
	if path := config.ForecastTableFile(); path != "" {
		var err error
		if table, err = forecast.LoadTable(path); err != nil {
			log.Fatal().Err(err).Msg("forecast table")
		}
	}
	gen := simulate.New(table, rand.New(rand.NewSource(time.Now().UnixNano())))

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("solar-pr-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	topic := config.MQTTTopic()
	today := fiscal.Normalize(time.Now())
	sent := 0
	for i := days; i >= 1; i-- {
		day := today.AddDate(0, 0, -i)
		for _, site := range simulate.DemoSites() {
			target := gen.Target(site, fiscal.YearOf(day))
			payload, err := json.Marshal(domain.ReadingMessage{
				SiteNumber:    site.SiteNumber,
				Date:          day.Format("2006-01-02"),
				GenerationKWh: gen.Generation(performance.DailyTarget(&target, day)),
			})
			if err != nil {
				log.Fatal().Err(err).Msg("encode reading")
			}
			token := client.Publish(topic, 1, false, payload)
			if token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Int("site_number", site.SiteNumber).Msg("publish failed")
				continue
			}
			sent++
		}
		time.Sleep(200 * time.Millisecond)
	}
	log.Info().Int("messages", sent).Str("topic", topic).Msg("simulation done")
}
