package hardware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseW1Slave(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    float64
		wantErr error
	}{
		{
			name: "valid reading",
			payload: "4b 46 7f ff 02 10 1c : crc=1c YES\n" +
				"4b 46 7f ff 02 10 1c t=23062\n",
			want: 23.062,
		},
		{
			name: "negative reading",
			payload: "4b 46 7f ff 02 10 1c : crc=1c YES\n" +
				"4b 46 7f ff 02 10 1c t=-1250\n",
			want: -1.25,
		},
		{
			name: "crc failure",
			payload: "4b 46 7f ff 02 10 1c : crc=1c NO\n" +
				"4b 46 7f ff 02 10 1c t=23062\n",
			wantErr: ErrChecksum,
		},
		{
			name: "power-on reset value",
			payload: "4b 46 7f ff 02 10 1c : crc=1c YES\n" +
				"4b 46 7f ff 02 10 1c t=85000\n",
			wantErr: ErrNotReady,
		},
		{
			name:    "truncated payload",
			payload: "4b 46 7f ff\n",
			wantErr: ErrNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseW1Slave([]byte(tt.payload))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("temperature = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDS18B20ReadTemperature(t *testing.T) {
	dir := t.TempDir()
	device := filepath.Join(dir, "28-000000b239d5")
	if err := os.MkdirAll(device, 0o750); err != nil {
		t.Fatal(err)
	}
	payload := "4b 46 7f ff 02 10 1c : crc=1c YES\n" +
		"4b 46 7f ff 02 10 1c t=21500\n"
	if err := os.WriteFile(filepath.Join(device, "w1_slave"), []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	sensor := NewDS18B20(dir, "000000b239d5")
	got, err := sensor.ReadTemperature(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 21.5 {
		t.Errorf("temperature = %v, want 21.5", got)
	}
}

func TestDS18B20MissingSensor(t *testing.T) {
	sensor := NewDS18B20(t.TempDir(), "deadbeef0000")
	_, err := sensor.ReadTemperature(context.Background())
	if !errors.Is(err, ErrNoSensor) {
		t.Errorf("error = %v, want ErrNoSensor", err)
	}
	if !IsTransient(err) {
		t.Error("missing sensor should be classified transient")
	}
}

func TestDS18B20AcceptsPrefixedID(t *testing.T) {
	sensor := NewDS18B20("/sys/bus/w1/devices", "28-000000b239d5")
	want := "/sys/bus/w1/devices/28-000000b239d5/w1_slave"
	if sensor.path != want {
		t.Errorf("path = %q, want %q", sensor.path, want)
	}
}

func TestDHT22Read(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_temp_input"), []byte("22700\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in_humidityrelative_input"), []byte("48200\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	sensor := NewDHT22(dir)
	temp, err := sensor.ReadTemperature(context.Background())
	if err != nil {
		t.Fatalf("temperature error: %v", err)
	}
	if temp != 22.7 {
		t.Errorf("temperature = %v, want 22.7", temp)
	}

	hum, err := sensor.ReadHumidity(context.Background())
	if err != nil {
		t.Fatalf("humidity error: %v", err)
	}
	if hum != 48.2 {
		t.Errorf("humidity = %v, want 48.2", hum)
	}
}

func TestDHT22MissingDevice(t *testing.T) {
	sensor := NewDHT22(filepath.Join(t.TempDir(), "iio:device9"))
	_, err := sensor.ReadTemperature(context.Background())
	if !errors.Is(err, ErrNoSensor) {
		t.Errorf("error = %v, want ErrNoSensor", err)
	}
}

func TestDHT22GarbledValue(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_temp_input"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	sensor := NewDHT22(dir)
	_, err := sensor.ReadTemperature(context.Background())
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("error = %v, want ErrChecksum", err)
	}
}

func TestSimSensorStaysInRange(t *testing.T) {
	sensor := NewSimSensor(21.0, 50.0)
	ctx := context.Background()

	for range 100 {
		temp, err := sensor.ReadTemperature(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if temp < 0 || temp > 45 {
			t.Fatalf("simulated temperature drifted out of range: %v", temp)
		}
		hum, err := sensor.ReadHumidity(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if hum < 0 || hum > 100 {
			t.Fatalf("simulated humidity out of range: %v", hum)
		}
	}
}

func TestSimGPIO(t *testing.T) {
	gpio := NewSimGPIO()

	if err := gpio.SetPinLevel(18, true); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("driving unconfigured pin: error = %v, want ErrWriteFailed", err)
	}

	if err := gpio.SetupPin(18, true); err != nil {
		t.Fatalf("setup: %v", err)
	}
	level, ok := gpio.Level(18)
	if !ok || !level {
		t.Errorf("after setup high: level = %v, ok = %v", level, ok)
	}

	if err := gpio.SetPinLevel(18, false); err != nil {
		t.Fatalf("set: %v", err)
	}
	level, _ = gpio.Level(18)
	if level {
		t.Error("pin should be low after SetPinLevel(18, false)")
	}
}
