package models

// EventType discriminates the webhook envelope variants.
type EventType string

const (
	EventStatusFind          EventType = "status-find"
	EventPhoneCode           EventType = "phoneCode"
	EventQRCode              EventType = "qrcode"
	EventCloseSession        EventType = "closesession"
	EventLogoutSession       EventType = "logoutsession"
	EventOnMessage           EventType = "onmessage"
	EventOnSelfMessage       EventType = "onselfmessage"
	EventUnreadMessages      EventType = "unreadmessages"
	EventLocation            EventType = "location"
	EventOnAck               EventType = "onack"
	EventParticipantsChanged EventType = "onparticipantschanged"
	EventPresenceChanged     EventType = "onpresencechanged"
	EventReactionMessage     EventType = "onreactionmessage"
	EventRevokedMessage      EventType = "onrevokedmessage"
	EventPollResponse        EventType = "onpollresponse"
	EventIncomingCall        EventType = "incomingcall"
	EventUpdateLabel         EventType = "onupdatelabel"
)

// ChatStatus is the fine-grained sub-status carried on every envelope.
// For status-find events it echoes the raw transport signal; protocol
// events carry a fixed per-kind constant.
type ChatStatus string

const (
	ChatIsLogged           ChatStatus = "isLogged"
	ChatNotLogged          ChatStatus = "notLogged"
	ChatBrowserClose       ChatStatus = "browserClose"
	ChatQRReadSuccess      ChatStatus = "qrReadSuccess"
	ChatQRReadFail         ChatStatus = "qrReadFail"
	ChatQRReadError        ChatStatus = "qrReadError"
	ChatQRAwaitingRead     ChatStatus = "qrAwaitingRead"
	ChatAutocloseCalled    ChatStatus = "autocloseCalled"
	ChatDisconnectedMobile ChatStatus = "desconnectedMobile"
	ChatPhoneNotConnected  ChatStatus = "phoneNotConnected"
	ChatServerClose        ChatStatus = "serverClose"
	ChatDeleteToken        ChatStatus = "deleteToken"
	ChatInChat             ChatStatus = "inChat"
	ChatAvailable          ChatStatus = "available"
	ChatUnavailable        ChatStatus = "unavailable"
)
