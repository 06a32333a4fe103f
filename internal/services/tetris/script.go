package tetris

import (
	"fmt"
	"strings"
	"time"
)

// ParseScript はティックごとのコマンド列を読み取ります。
// ティックは空白区切り、同じティックのコマンドは '+' で連結し、"." は入力なしのティックです。
//
//	"move_left rotate . soft_drop+move_right"
func ParseScript(script string) ([][]Command, error) {
	fields := strings.Fields(script)
	ticks := make([][]Command, 0, len(fields))
	for i, field := range fields {
		if field == "." {
			ticks = append(ticks, nil)
			continue
		}
		var cmds []Command
		for _, action := range strings.Split(field, "+") {
			cmd, ok := ParseCommand(action)
			if !ok {
				return nil, fmt.Errorf("tick %d: %w: %q", i, ErrUnknownAction, action)
			}
			cmds = append(cmds, cmd)
		}
		ticks = append(ticks, cmds)
	}
	return ticks, nil
}

// RunScript はスクリプトの各ティックを delta ずつ進め、続けて idle 回の入力なしティックを実行します。
// ゲームが終端状態に達した時点で止まり、実行したティック数を返します。
func RunScript(g *Game, ticks [][]Command, idle int, delta time.Duration) int {
	ran := 0
	for _, cmds := range ticks {
		if g.State().IsTerminal() {
			return ran
		}
		g.Advance(delta, cmds...)
		ran++
	}
	for i := 0; i < idle && !g.State().IsTerminal(); i++ {
		g.Advance(delta)
		ran++
	}
	return ran
}
