package config

import "path/filepath"

func Defaults() *Config {
	dir := DefaultConfigDir()
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Daemon: DaemonConfig{
			EventBuffer: 100,
		},
		Router: RouterConfig{
			DownloadDir: filepath.Join(dir, "downloads"),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9480",
		},
		Extensions: ExtensionsConfig{
			Notes: NotesConfig{
				Enabled: false,
				DBPath:  filepath.Join(dir, "notes.db"),
			},
			Mirror: MirrorConfig{
				Enabled: false,
			},
		},
	}
}
