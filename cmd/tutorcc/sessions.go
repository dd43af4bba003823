package main

import (
	"fmt"
	"strings"

	"github.com/quyk67uet/ai-assistant-workflow/internal/session"
)

// Run lists persisted sessions, or prints one session's event log.
func (s *SessionsCmd) Run() error {
	cfg, err := loadConfig(s.Config)
	if err != nil {
		return err
	}
	files, err := session.NewFileStore(cfg.Sessions.Dir)
	if err != nil {
		return err
	}

	if s.ID == "" {
		ids, err := files.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}
		for _, id := range ids {
			sess, err := files.Load(id)
			if err != nil {
				fmt.Printf("%s  (unreadable: %v)\n", id, err)
				continue
			}
			fmt.Printf("%s  %-8s  %s\n", id, sess.Status, truncate(sess.Instruction, 60))
		}
		return nil
	}

	sess, err := files.Load(s.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s (%s)\n", sess.ID, sess.Status)
	fmt.Printf("Instruction: %s\n", sess.Instruction)
	if sess.Error != "" {
		fmt.Printf("Error: %s\n", sess.Error)
	}
	for _, evt := range sess.Events {
		line := fmt.Sprintf("%3d  %s  %-12s", evt.SeqID,
			evt.Timestamp.Format("15:04:05.000"), evt.Type)
		if evt.Tool != "" {
			line += "  " + evt.Tool
		}
		if evt.Error != "" {
			line += "  ERROR: " + evt.Error
		} else if evt.Content != "" {
			line += "  " + truncate(evt.Content, 80)
		}
		fmt.Println(line)
	}
	return nil
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
