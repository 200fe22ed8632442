// Package signaling carries call-protocol messages between the session
// controller and the conversational-agent gateway over a persistent duplex
// channel.
//
// The wire protocol is a small tagged-frame taxonomy:
//
//	{"type": "audio", "audio": <base64>, "format": <mime>}   client -> server
//	{"type": "response", "text", "audio", "user_text"?}      server -> client
//	{"type": "goodbye", "text", "audio"}                     server -> client
//	{"type": "end"}                                          client -> server
//
// Frames are delivered in send order. The channel does not enforce
// half-duplex turn discipline; that belongs to the session layer.
//
// Two transports are provided: a gorilla/websocket channel for production
// ([WebSocketDialer]) and an in-process pipe pair ([Pipe]) for tests and
// local simulation.
package signaling
