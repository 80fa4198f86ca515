package chat

// unreadCounters tracks private messages delivered to each connection since
// its last reset.
type unreadCounters map[string]int

func (u unreadCounters) increment(connID string) int {
	u[connID]++
	return u[connID]
}

func (u unreadCounters) reset(connID string) {
	delete(u, connID)
}

func (u unreadCounters) get(connID string) int {
	return u[connID]
}
