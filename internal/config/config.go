package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pruthvir7/ParkingManagement/internal/tracker"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"

	RecognizerTesseract   = "tesseract"
	RecognizerRekognition = "rekognition"

	EnhancerImaging = "imaging"
	EnhancerOpenCV  = "opencv"
)

type Config struct {
	ServerPort string

	StoreDriver string
	DBHost      string
	DBPort      int
	DBUser      string
	DBPassword  string
	DBName      string
	DBSslMode   string
	SQLitePath  string

	AWSRegion        string
	SQSEntryQueueURL string
	SQSAlertQueueURL string
	IoTMQTTEndpoint  string
	AlertTopicPrefix string
	AlertRecipient   string

	CameraSource string
	CascadePath  string
	FrameWidth   int
	FrameHeight  int
	Recognizer   string
	OCRLanguage  string
	Enhancer     string
	SnapshotDir  string

	LotName      string
	SlotName     string
	IoUThreshold float64
	MatchPolicy  string
	MinPlateArea int
	GracePeriod  time.Duration
	MinDwell     time.Duration

	EmitQueueSize       int
	StoreTimeout        time.Duration
	EntryCheckRetention time.Duration

	LogLevel       string
	LogDevelopment bool

	// Defaulted lists the variables that were unset or unparsable. The logger does
	// not exist yet when Load runs, so main reports them.
	Defaulted []string
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: reading .env: %w", err)
	}

	l := &loader{}
	cfg := &Config{
		ServerPort: l.getEnv("SERVER_PORT", "8080"),

		StoreDriver: strings.ToLower(l.getEnv("STORE_DRIVER", StoreDriverSQLite)),
		DBHost:      l.getEnv("DB_HOST", "localhost"),
		DBPort:      l.getEnvInt("DB_PORT", 5432),
		DBUser:      l.getEnv("DB_USER", "parking"),
		DBPassword:  l.getEnv("DB_PASSWORD", ""),
		DBName:      l.getEnv("DB_NAME", "parking_db"),
		DBSslMode:   l.getEnv("DB_SSLMODE", "disable"),
		SQLitePath:  l.getEnv("SQLITE_PATH", "parking.db"),

		AWSRegion:        l.getEnv("AWS_REGION", "ap-south-1"),
		SQSEntryQueueURL: l.getEnv("SQS_ENTRY_QUEUE_URL", ""),
		SQSAlertQueueURL: l.getEnv("SQS_ALERT_QUEUE_URL", ""),
		IoTMQTTEndpoint:  l.getEnv("IOT_MQTT_ENDPOINT", ""),
		AlertTopicPrefix: l.getEnv("ALERT_TOPIC_PREFIX", "parking/alerts"),
		AlertRecipient:   l.getEnv("ALERT_RECIPIENT", "operator"),

		CameraSource: l.getEnv("CAMERA_SOURCE", "0"),
		CascadePath:  l.getEnv("CASCADE_PATH", "haarcascade_russian_plate_number.xml"),
		FrameWidth:   l.getEnvInt("FRAME_WIDTH", 1280),
		FrameHeight:  l.getEnvInt("FRAME_HEIGHT", 720),
		Recognizer:   strings.ToLower(l.getEnv("RECOGNIZER", RecognizerTesseract)),
		OCRLanguage:  l.getEnv("OCR_LANGUAGE", "eng"),
		Enhancer:     strings.ToLower(l.getEnv("ENHANCER", EnhancerImaging)),
		SnapshotDir:  l.getEnv("SNAPSHOT_DIR", ""),

		LotName:      l.getEnv("LOT_NAME", "Lot_A"),
		SlotName:     l.getEnv("SLOT_NAME", "Slot_1"),
		IoUThreshold: l.getEnvFloat("IOU_THRESHOLD", 0.5),
		MatchPolicy:  strings.ToLower(l.getEnv("MATCH_POLICY", string(tracker.MatchFirst))),
		MinPlateArea: l.getEnvInt("MIN_PLATE_AREA", 500),
		GracePeriod:  l.getEnvDuration("GRACE_PERIOD", 3*time.Second),
		MinDwell:     l.getEnvDuration("MIN_DWELL", 30*time.Second),

		EmitQueueSize:       l.getEnvInt("EMIT_QUEUE_SIZE", 64),
		StoreTimeout:        l.getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		EntryCheckRetention: l.getEnvDuration("ENTRY_CHECK_RETENTION", 168*time.Hour),

		LogLevel:       l.getEnv("LOG_LEVEL", "info"),
		LogDevelopment: l.getEnvBool("LOG_DEVELOPMENT", false),
	}
	cfg.Defaulted = l.defaulted

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.Recognizer {
	case RecognizerTesseract, RecognizerRekognition:
	default:
		return fmt.Errorf("unknown RECOGNIZER %q", c.Recognizer)
	}
	switch c.Enhancer {
	case EnhancerImaging, EnhancerOpenCV:
	default:
		return fmt.Errorf("unknown ENHANCER %q", c.Enhancer)
	}
	if c.EmitQueueSize <= 0 {
		return fmt.Errorf("EMIT_QUEUE_SIZE must be positive, got %d", c.EmitQueueSize)
	}
	return c.TrackerConfig().Validate()
}

func (c *Config) TrackerConfig() tracker.Config {
	return tracker.Config{
		IoUThreshold: c.IoUThreshold,
		MatchPolicy:  tracker.MatchPolicy(c.MatchPolicy),
		MinPlateArea: c.MinPlateArea,
		GracePeriod:  c.GracePeriod,
		MinDwell:     c.MinDwell,
		Lot:          c.LotName,
		Slot:         c.SlotName,
	}
}

// PostgresDSN is the libpq-style connection string accepted by the pgx stdlib driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

type loader struct {
	defaulted []string
}

func (l *loader) getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	l.defaulted = append(l.defaulted, key)
	return fallback
}

func (l *loader) getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	return v
}

func (l *loader) getEnvFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	return v
}

// getEnvDuration accepts Go durations ("3s") or a bare number of seconds.
func (l *loader) getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	raw = strings.TrimSpace(raw)
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	l.defaulted = append(l.defaulted, key)
	return fallback
}

func (l *loader) getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		l.defaulted = append(l.defaulted, key)
		return fallback
	}
	return v
}
