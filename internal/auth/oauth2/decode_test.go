package oauth2

import "github.com/go-viper/mapstructure/v2"

func decodeMap(in map[string]interface{}, out *Config) error {
	return mapstructure.Decode(in, out)
}
