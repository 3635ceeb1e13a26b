// pihub - Raspberry Pi home automation hub
//
// pihub polls DHT22 and DS18B20 sensors concurrently, drives relay
// boards through GPIO, and exposes everything over a small JSON API
// with an embedded dashboard. State can optionally be mirrored to an
// MQTT broker and an InfluxDB bucket.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nerrad567/pihub/internal/api"
	"github.com/nerrad567/pihub/internal/cache"
	"github.com/nerrad567/pihub/internal/hardware"
	"github.com/nerrad567/pihub/internal/infrastructure/config"
	"github.com/nerrad567/pihub/internal/infrastructure/database"
	"github.com/nerrad567/pihub/internal/infrastructure/influxdb"
	"github.com/nerrad567/pihub/internal/infrastructure/logging"
	"github.com/nerrad567/pihub/internal/infrastructure/mqtt"
	"github.com/nerrad567/pihub/internal/relay"
	"github.com/nerrad567/pihub/internal/sensor"
	"github.com/nerrad567/pihub/internal/task"
	"github.com/nerrad567/pihub/migrations"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting pihub", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Database and migrations.
	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Migrate(ctx, migrations.Files); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Shared cache: one family per sensor type plus the relays.
	readings := cache.New("dht22", "ds18b20", relay.Family)

	// Optional MQTT state mirror.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Optional InfluxDB telemetry mirror.
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Supervisor owns every long-running goroutine: sensor poll loops,
	// aggregation, relay reconciliation.
	sup := task.NewSupervisor()
	sup.SetLogger(log)

	metaRepo := sensor.NewSQLiteMetadataRepository(db.DB)

	aggregators, err := buildSensors(ctx, cfg, readings, metaRepo, sup, mqttClient, influxClient, log)
	if err != nil {
		return fmt.Errorf("registering sensors: %w", err)
	}

	relays, err := buildRelays(ctx, cfg, readings, db, sup, mqttClient, influxClient, log)
	if err != nil {
		return fmt.Errorf("registering relays: %w", err)
	}

	// Relay commands over MQTT: pihub/relay/<id>/set with "on"/"off".
	if mqttClient != nil {
		err = mqttClient.Subscribe(mqtt.AllRelayCommands(), byte(cfg.MQTT.QoS),
			func(topic string, payload []byte) error {
				id, ok := mqtt.RelayIDFromCommandTopic(topic)
				if !ok {
					return fmt.Errorf("unexpected command topic %q", topic)
				}
				var on bool
				switch strings.ToLower(strings.TrimSpace(string(payload))) {
				case "on":
					on = true
				case "off":
					on = false
				default:
					return fmt.Errorf("relay %s: invalid command payload %q", id, payload)
				}
				return relays.Set(ctx, id, on)
			})
		if err != nil {
			return fmt.Errorf("subscribing to relay commands: %w", err)
		}
	}

	// HTTP API and dashboard.
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		Logger:      log,
		Cache:       readings,
		Relays:      relays,
		Aggregators: aggregators,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting api server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing api server", "error", closeErr)
		}
	}()
	log.Info("api server listening", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	if err := healthCheck(ctx, db, apiServer, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	sup.Wait()

	log.Info("pihub stopped")
	return nil
}

// buildSensors registers every configured sensor unit with its family
// aggregator and starts the poll and aggregation loops under the
// supervisor. Returns the aggregators keyed by family for the API's
// metadata endpoint.
func buildSensors(
	ctx context.Context,
	cfg *config.Config,
	readings *cache.Cache,
	metaRepo sensor.MetadataRepository,
	sup *task.Supervisor,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (map[string]*sensor.Aggregator, error) {
	simulated := cfg.Hardware.Mode == config.HardwareModeSimulated

	onPublish := func(family string, snapshot map[string]sensor.Reading) {
		if mqttClient != nil {
			if err := mqttClient.PublishJSON(mqtt.StateTopic(family), snapshot); err != nil {
				log.Warn("mqtt state publish failed", "family", family, "error", err)
			}
		}
		if influxClient != nil {
			for key, r := range snapshot {
				if r.Temperature != nil {
					influxClient.WriteSensorMetric(family, key, "temperature", *r.Temperature)
				}
				if r.Humidity != nil {
					influxClient.WriteSensorMetric(family, key, "humidity", *r.Humidity)
				}
			}
		}
	}

	dht := sensor.NewAggregator("dht22", cfg.DHT22AggregateInterval(), readings)
	dht.SetLogger(log.With("family", "dht22"))
	dht.SetSpawner(sup)
	dht.SetRepository(metaRepo)
	dht.SetOnPublish(onPublish)

	for _, unit := range cfg.Sensors.DHT22.Units {
		var driver sensor.TemperatureReader
		var humidity sensor.HumidityReader
		if simulated {
			sim := hardware.NewSimSensor(21.0, 45.0)
			driver, humidity = sim, sim
		} else {
			dev := hardware.NewDHT22(unit.Device)
			driver, humidity = dev, dev
		}

		_, err := dht.AddUnit(ctx, sensor.Config{
			Key:      strconv.Itoa(unit.Pin),
			Name:     unit.Name,
			Location: unit.Location,
			Interval: cfg.DHT22PollInterval(),
		}, driver, humidity)
		if err != nil {
			return nil, fmt.Errorf("dht22 pin %d: %w", unit.Pin, err)
		}
	}

	ds := sensor.NewAggregator("ds18b20", cfg.DS18B20AggregateInterval(), readings)
	ds.SetLogger(log.With("family", "ds18b20"))
	ds.SetSpawner(sup)
	ds.SetRepository(metaRepo)
	ds.SetOnPublish(onPublish)

	for _, unit := range cfg.Sensors.DS18B20.Units {
		var driver sensor.TemperatureReader
		if simulated {
			driver = hardware.NewSimSensor(18.0, 0)
		} else {
			driver = hardware.NewDS18B20(cfg.Hardware.W1Dir, unit.ID)
		}

		_, err := ds.AddUnit(ctx, sensor.Config{
			Key:      unit.ID,
			Name:     unit.Name,
			Location: unit.Location,
			Interval: cfg.DS18B20PollInterval(),
		}, driver, nil)
		if err != nil {
			return nil, fmt.Errorf("ds18b20 %s: %w", unit.ID, err)
		}
	}

	sup.Go(ctx, "dht22-aggregate", dht.Run)
	sup.Go(ctx, "ds18b20-aggregate", ds.Run)

	log.Info("sensors registered",
		"dht22", dht.UnitCount(),
		"ds18b20", ds.UnitCount(),
		"mode", cfg.Hardware.Mode,
	)

	return map[string]*sensor.Aggregator{
		"dht22":   dht,
		"ds18b20": ds,
	}, nil
}

// buildRelays registers every configured relay, restores persisted
// states, and starts the reconcile loop under the supervisor.
func buildRelays(
	ctx context.Context,
	cfg *config.Config,
	readings *cache.Cache,
	db *database.DB,
	sup *task.Supervisor,
	mqttClient *mqtt.Client,
	influxClient *influxdb.Client,
	log *logging.Logger,
) (*relay.Registry, error) {
	var driver relay.PinDriver
	if cfg.Hardware.Mode == config.HardwareModeSimulated {
		driver = hardware.NewSimGPIO()
	} else {
		driver = hardware.NewSysfsGPIO(cfg.Hardware.GPIODir)
	}

	relays := relay.NewRegistry(driver, readings)
	relays.SetLogger(log.With("component", "relay"))
	relays.SetRepository(relay.NewSQLiteStateRepository(db.DB))
	relays.SetReconcileInterval(cfg.ReconcileInterval())
	relays.SetOnPublish(func(states map[string]relay.State) {
		if mqttClient != nil {
			if err := mqttClient.PublishJSON(mqtt.StateTopic(relay.Family), states); err != nil {
				log.Warn("mqtt relay publish failed", "error", err)
			}
		}
		if influxClient != nil {
			for id, st := range states {
				influxClient.WriteRelayState(id, st.State)
			}
		}
	})

	for _, unit := range cfg.Relays.Units {
		err := relays.AddRelay(ctx, relay.Config{
			ID:         unit.ID,
			Pin:        unit.Pin,
			Name:       unit.Name,
			ActiveHigh: unit.ActiveHigh,
			Initial:    unit.Initial,
		})
		if err != nil {
			return nil, fmt.Errorf("relay pin %d: %w", unit.Pin, err)
		}
	}

	sup.Go(ctx, "relay-reconcile", relays.Run)

	log.Info("relays registered", "count", relays.Count())
	return relays, nil
}

// getConfigPath returns the configuration file path, preferring the
// PIHUB_CONFIG environment variable.
func getConfigPath() string {
	if path := os.Getenv("PIHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every started component before declaring the
// hub up.
func healthCheck(ctx context.Context, db *database.DB, apiServer *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := db.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := apiServer.HealthCheck(checkCtx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if mqttClient != nil && !mqttClient.IsConnected() {
		return fmt.Errorf("mqtt: not connected")
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(checkCtx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
