package config

type envDefaults struct {
	remoteFetch bool
	origins     []string
}

// localDefaults serve a frontend dev server running next to the gateway.
func localDefaults() envDefaults {
	return envDefaults{
		remoteFetch: true,
		origins:     []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// remoteDefaults keep remote fetching off until explicitly enabled.
func remoteDefaults() envDefaults {
	return envDefaults{}
}
