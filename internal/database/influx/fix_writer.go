package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"indoor-position-engine/internal/models"
)

// FixWriter streams computed position fixes and raw signal observations
// into InfluxDB. Writes go through the client's batching write API.
type FixWriter struct {
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewFixWriter(writeAPI api.WriteAPI, logger zerolog.Logger) *FixWriter {
	return &FixWriter{
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (w *FixWriter) WriteFix(ctx context.Context, position *models.Position) error {
	point := influxdb2.NewPoint(
		"position_fix",
		position.ToInfluxTags(),
		position.ToInfluxFields(),
		position.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	w.logger.Debug().
		Str("device_id", position.DeviceID).
		Str("source", string(position.Source)).
		Float64("x", position.X).
		Float64("y", position.Y).
		Msg("Added position fix to influxDB")

	return nil
}

func (w *FixWriter) WriteSignal(ctx context.Context, deviceID string, signal *models.Signal) error {
	tags := map[string]string{
		"device_id": deviceID,
		"beacon_id": signal.BeaconID,
		"source":    string(signal.Source),
	}

	fields := map[string]interface{}{
		"rssi": signal.RSSI,
	}
	if signal.TxPower != nil {
		fields["tx_power"] = *signal.TxPower
	}

	point := influxdb2.NewPoint(
		"signal_observation",
		tags,
		fields,
		signal.Timestamp,
	)

	w.writeAPI.WritePoint(point)

	return nil
}

func (w *FixWriter) WriteBatchSignals(ctx context.Context, deviceID string, signals []models.Signal) error {
	for i := range signals {
		if err := w.WriteSignal(ctx, deviceID, &signals[i]); err != nil {
			return err
		}
	}
	return nil
}
