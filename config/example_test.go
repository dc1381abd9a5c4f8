package config_test

import (
	"fmt"
	"log"
	"os"

	"github.com/sagarc03/presignd/config"
)

func ExampleLoad() {
	_ = os.Setenv("PRESIGND_STORAGE_ACCOUNT_ID", "acct123")
	_ = os.Setenv("PRESIGND_STORAGE_ACCESS_KEY_ID", "AKIAEXAMPLE")
	_ = os.Setenv("PRESIGND_STORAGE_SECRET_KEY", "secret")
	_ = os.Setenv("PRESIGND_STORAGE_BUCKET", "videos")
	defer func() {
		for _, k := range []string{"ACCOUNT_ID", "ACCESS_KEY_ID", "SECRET_KEY", "BUCKET"} {
			_ = os.Unsetenv("PRESIGND_STORAGE_" + k)
		}
	}()

	cfg, err := config.Load(nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Port: %d, TTL: %s, Endpoint: %s\n",
		cfg.Server.Port, cfg.Presign.TTLDuration(), cfg.Storage.BucketRef().EndpointURL())
	// Output: Port: 8080, TTL: 10m0s, Endpoint: https://acct123.r2.cloudflarestorage.com
}
