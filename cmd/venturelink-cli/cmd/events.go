package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/venturelink/venturelink/internal/modules/messaging"
	"github.com/venturelink/venturelink/internal/presence"
	"github.com/venturelink/venturelink/internal/websocket"
)

type eventInfo struct {
	name        string
	direction   string
	description string
}

func knownEvents() []eventInfo {
	return []eventInfo{
		{websocket.EventJoin, "client -> server", "subscribe the connection to an additional room"},
		{messaging.EventSendMessage, "client -> server", "send a direct message {senderId, receiverId, content}"},
		{messaging.EventReadMessages, "client -> server", "mark a conversation read {userId, contactId}"},
		{messaging.EventMessageSent, "server -> client", "ack to the sender carrying the persisted message"},
		{messaging.EventReceiveMessage, "server -> client", "delivery to the receiver carrying the persisted message"},
		{messaging.EventMessagesRead, "server -> client", "read receipt to the other party {byUserId, forUserId}"},
		{messaging.EventSendFailed, "server -> client", "rejection to the sender {reason, receiverId}"},
		{presence.EventPresenceUpdated, "server -> client", "full online list broadcast to the presence room {online}"},
	}
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the WebSocket wire events clients may send and receive",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT\tDIRECTION\tDESCRIPTION")
		fmt.Fprintln(w, "-----\t---------\t-----------")
		for _, e := range knownEvents() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.name, e.direction, e.description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
