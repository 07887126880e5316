package configuration

import (
	"github.com/sirupsen/logrus"
	"github.com/wangArtsoar/tars/domain/persistence"
	"github.com/wangArtsoar/tars/gemini_util"
)

// OpenStore opens the conversation store chosen by STORE_DRIVER.
func (c *Config) OpenStore(log *logrus.Entry) (persistence.Store, error) {
	if c.StoreDriver == DriverBolt {
		if err := EnsureDir(c.DBPath); err != nil {
			return nil, err
		}
		return persistence.OpenBoltStore(c.DBPath, log)
	}
	db, err := OpenSQLite(c.DBPath)
	if err != nil {
		return nil, err
	}
	store, err := persistence.NewSQLiteStore(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Sealer returns the context sealer for RECORD_KEY, or nil when none is set.
func (c *Config) Sealer() (gemini_util.ISealer, error) {
	if c.RecordKey == "" {
		return nil, nil
	}
	return gemini_util.NewSealer(c.RecordKey)
}
