package a

import "go.uber.org/zap"

type Record struct {
	ID    int64
	Value string
	Attr1 string
}

type RecordWithType struct {
	Record
	TypeName string
}

type other struct {
	Value string
}

func bad(logger *zap.SugaredLogger, rec Record, row *RecordWithType, password string) {
	logger.Infow("added record", "value", rec.Value)     // want "record Value passed to Infow"
	logger.Debugw("row", "bank", row.Attr1)             // want "record Attr1 passed to Debugw"
	logger.Errorf("login with %s failed", password)      // want "password material \"password\" passed to Errorf"
	logger.Infow("hashing", "confirmation", confirmPw()) // no string identifier, only a call
}

func confirmPw() string { return "" }

func good(logger *zap.SugaredLogger, rec Record, o other, passwordSet bool) {
	logger.Infow("added record", "record_id", rec.ID)
	logger.Infow("other value", "value", o.Value)
	logger.Debugw("registered", "password_set", passwordSet)
}
