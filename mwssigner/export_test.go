package mwssigner

import "time"

func SetNowFunc(s *SigV2Signer, now func() time.Time) {
	s.nowFunc = now
}
