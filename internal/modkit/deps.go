package modkit

import (
	"leadfunnel/internal/platform/config"
	"leadfunnel/internal/platform/logger"
	"leadfunnel/internal/platform/store"
)

// Deps holds what modules share. Stores are nil when disabled
type Deps struct {
	Log *logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
	KV  store.KV
}

// FromStore fills the store fields from an opened store
func FromStore(cfg config.Conf, st *store.Store) Deps {
	d := Deps{Cfg: cfg, Log: logger.Get()}
	if st == nil {
		return d
	}
	d.PG, d.CH, d.KV = st.PG, st.CH, st.KV
	return d
}

// Logger returns the module logger, never nil
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}
