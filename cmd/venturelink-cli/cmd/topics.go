package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	messagingtopics "github.com/venturelink/venturelink/internal/modules/messaging/topics"
	"github.com/venturelink/venturelink/internal/websocket"
)

type topicInfo struct {
	name        string
	direction   string
	description string
}

func knownTopics() []topicInfo {
	return []topicInfo{
		{messagingtopics.SendRequest, "client -> server", "send_message requests routed from the bridge to the delivery coordinator"},
		{messagingtopics.ReadRequest, "client -> server", "read_messages requests marking a conversation read"},
		{websocket.TopicClientConnected, "internal", "published by the bridge when a connection registers"},
		{websocket.TopicClientDisconnected, "internal", "published by the bridge when a connection goes away"},
	}
}

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the bus topics the server routes messages onto",
	Run: func(cmd *cobra.Command, args []string) {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDIRECTION\tDESCRIPTION")
		fmt.Fprintln(w, "----\t---------\t-----------")
		for _, t := range knownTopics() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.name, t.direction, t.description)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
