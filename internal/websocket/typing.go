package websocket

// TypingCoordinator relays typing indicators between two users. It keeps no
// state; receiving clients handle debounce and timeouts.
type TypingCoordinator struct {
	router *Router
}

func NewTypingCoordinator(router *Router) *TypingCoordinator {
	return &TypingCoordinator{router: router}
}

func (t *TypingCoordinator) TypingStart(from, to string) bool {
	return t.relay(MessageTypeTyping, from, to)
}

func (t *TypingCoordinator) TypingStop(from, to string) bool {
	return t.relay(MessageTypeStopTyping, from, to)
}

func (t *TypingCoordinator) relay(event MessageType, from, to string) bool {
	if to == "" || to == from {
		return false
	}
	return t.router.RouteToUser(to, event, PeerData{From: from})
}
