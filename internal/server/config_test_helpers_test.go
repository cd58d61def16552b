package server

import "github.com/vishvjeettanwar1623/ProfileAuditor/internal/config"

func configForMemory() config.Config {
	return config.Config{CredentialStore: config.StoreMemory}
}
