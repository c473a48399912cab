package rediskey

import "fmt"

// Key conventions shared across services.
const (
	BountyPrefix      = "bounty"
	BountyCodeSeq     = "bounty:code:seq"
	PayoutBatchSeq    = "payout:batch:seq"
	ActivityFeedCache = "activity:feed"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildBountyCodeSeqKey returns "bounty:code:seq:{yyyymmdd}".
func BuildBountyCodeSeqKey(datePart string) string {
	return NamespaceKey(BountyCodeSeq, datePart)
}

// BuildPayoutBatchSeqKey returns "payout:batch:seq:{yyyymmdd}".
func BuildPayoutBatchSeqKey(datePart string) string {
	return NamespaceKey(PayoutBatchSeq, datePart)
}

// BuildActivityFeedKey returns "activity:feed:{contributorID}".
func BuildActivityFeedKey(contributorID string) string {
	return NamespaceKey(ActivityFeedCache, contributorID)
}
