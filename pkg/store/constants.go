package store

type KeyPrefix = byte

const (
	dbDataPrefix KeyPrefix = 'd'
	dbSeqPrefix  KeyPrefix = 's'
)

// nsSeparator ends a namespace name inside keys
const nsSeparator = 0

const idKeyLen = 8
