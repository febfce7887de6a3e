package cache

// Key generates the deterministic Redis key for a group's item count.
//
// Format: report:count:<group_id>
func Key(groupID string) string {
	return "report:count:" + groupID
}
