package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchparty/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "PORT",
		flagKey:      "port",
		defaultValue: 3000,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	staticDir = configVar[string]{
		envKey:       "SERVER_STATIC_DIR",
		flagKey:      "static-dir",
		defaultValue: "./public",
		usage:        "Directory with client assets, empty to disable",
	}
	hostOnlyControls = configVar[bool]{
		envKey:       "SERVER_HOST_ONLY_CONTROLS",
		flagKey:      "host-only-controls",
		defaultValue: false,
		usage:        "Allow only the room host to skip videos and control playback",
	}
	sendBuffer = configVar[int]{
		envKey:       "SERVER_SEND_BUFFER",
		flagKey:      "send-buffer",
		defaultValue: 64,
		usage:        "Outbound messages queued per connection before it is dropped",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "",
		usage:        "Redis host for the room mirror, empty to disable",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	mirrorTTL = configVar[time.Duration]{
		envKey:       "SERVER_MIRROR_TTL",
		flagKey:      "mirror-ttl",
		defaultValue: 10 * time.Minute,
		usage:        "Expiry of mirrored room snapshots",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.String(staticDir.flagKey, staticDir.defaultValue, staticDir.usage)
	pflag.Bool(hostOnlyControls.flagKey, hostOnlyControls.defaultValue, hostOnlyControls.usage)
	pflag.Int(sendBuffer.flagKey, sendBuffer.defaultValue, sendBuffer.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Duration(mirrorTTL.flagKey, mirrorTTL.defaultValue, mirrorTTL.usage)
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	bind(host)
	bind(port)
	bind(logLevel)
	bind(staticDir)
	bind(hostOnlyControls)
	bind(sendBuffer)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(mirrorTTL)

	return &app.AppConfig{
		Host:             viper.GetString(host.flagKey),
		Port:             viper.GetInt(port.flagKey),
		LogLevel:         viper.GetString(logLevel.flagKey),
		StaticDir:        viper.GetString(staticDir.flagKey),
		HostOnlyControls: viper.GetBool(hostOnlyControls.flagKey),
		SendBuffer:       viper.GetInt(sendBuffer.flagKey),
		RedisHost:        viper.GetString(redisHost.flagKey),
		RedisPort:        viper.GetInt(redisPort.flagKey),
		RedisPassword:    viper.GetString(redisPassword.flagKey),
		MirrorTTL:        viper.GetDuration(mirrorTTL.flagKey),
	}
}

func main() {
	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(context.Background(), appConfig); err != nil {
		log.Fatal(err)
	}
}
