package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	UploadDir  string
	OutputDir  string
	ArchiveDir string

	ProjectStateFile string
	ProjectStoreDSN  string

	MaxUploadBytes   int64
	SourceExtensions []string
	IgnoreDirs       []string

	RemoteFetchEnabled bool
	RemoteFetchTimeout time.Duration

	AllowedOrigins    []string
	AnalysisCacheSize int

	Artifact ArtifactConfig
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// DatabaseURL selects the Postgres artifact store when S3 is not usable.
	DatabaseURL string
}

// CanUseS3 reports whether the S3 settings are complete.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled &&
		strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

const (
	defaultMaxUploadBytes = 100 << 20
	defaultFetchTimeout   = 2 * time.Minute
)

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	port := fs.String("port", ":8000", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}
	defaults := remoteDefaults()
	if strings.EqualFold(env, "local") {
		defaults = localDefaults()
	}

	uploadDir := firstNonEmpty(strings.TrimSpace(os.Getenv("UPLOAD_DIR")), "uploads")
	outputDir := firstNonEmpty(strings.TrimSpace(os.Getenv("OUTPUT_DIR")), "outputs")

	return &Config{
		Port:               *port,
		Env:                env,
		UploadDir:          uploadDir,
		OutputDir:          outputDir,
		ArchiveDir:         firstNonEmpty(strings.TrimSpace(os.Getenv("ARCHIVE_DIR")), outputDir),
		ProjectStateFile:   firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECT_STATE_FILE")), "tmp/project_states.json"),
		ProjectStoreDSN:    strings.TrimSpace(os.Getenv("PROJECT_STORE_PG_DSN")),
		MaxUploadBytes:     envInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		SourceExtensions:   envList("SOURCE_EXTENSIONS", []string{".php"}),
		IgnoreDirs:         envList("SOURCE_IGNORE_DIRS", nil),
		RemoteFetchEnabled: envBool("REMOTE_FETCH_ENABLED", defaults.remoteFetch),
		RemoteFetchTimeout: envDuration("REMOTE_FETCH_TIMEOUT", defaultFetchTimeout),
		AllowedOrigins:     envList("CORS_ALLOWED_ORIGINS", defaults.origins),
		AnalysisCacheSize:  int(envInt64("ANALYSIS_CACHE_SIZE", 128)),
		Artifact:           loadArtifactConfig(env),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled:     endpoint != "",
		Endpoint:    endpoint,
		Region:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:      firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "legacyport-artifacts"),
		UseSSL:      resolveArtifactUseSSL(env),
		DatabaseURL: strings.TrimSpace(os.Getenv("ARTIFACT_PG_DSN")),
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	return envBool("ARTIFACT_S3_USE_SSL", true)
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
