package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"arb-client/internal/event"
	"arb-client/internal/service/mq"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "实时打印转账事件 (events.sink 为 kafka 或 redis 时)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		group, _ := cmd.Flags().GetString("group")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		host, _ := os.Hostname()
		consumer, err := mq.NewConsumer(ctx, cfg, group, fmt.Sprintf("%s-%d", host, os.Getpid()))
		if err != nil {
			return err
		}
		defer consumer.Close()

		fmt.Fprintf(out, "监听 %s (%s), Ctrl+C 退出\n", cfg.Events.Topic, cfg.Events.Sink)
		return consumer.Subscribe(ctx, cfg.Events.Topic, func(msg *mq.Message) error {
			var ev event.TransferEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				// 无法解析的消息直接确认, 不阻塞后续
				fmt.Fprintf(cmd.ErrOrStderr(), "skip %s: %v\n", msg.ID, err)
				return nil
			}
			fmt.Fprintf(out, "%s  %-8s  %-20s  %s  %v\n",
				ev.Time.Format("15:04:05"), ev.AttemptID, ev.State, ev.From, ev.Fields)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().String("group", "arb-cli-tail", "消费组名")
}
