package main

import (
	"fmt"

	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/user"
)

func (cli *commandLine) generate(kind string, count int, seed int64) error {
	gen := mockgen.NewUnseeded()
	if seed != 0 {
		gen = mockgen.NewSeeded(seed)
	}

	var data interface{}
	switch kind {
	case "student", "teacher":
		accts := make([]user.Account, count)
		for i := range accts {
			accts[i] = gen.Account(user.Role(kind))
		}
		data = accts
	case "class":
		teacher := gen.Teacher()
		classes := make([]user.Class, count)
		for i := range classes {
			classes[i] = gen.Class(teacher.ID)
		}
		data = classes
	case "activity":
		student := gen.Student()
		data = gen.Activities(count, student.ID, gen.Teacher().ID, student.ClassID)
	case "reward":
		data = gen.Rewards(count)
	case "leaderboard":
		data = gen.Leaderboard(count)
	default:
		return fmt.Errorf("%q: no such kind", kind)
	}
	return cli.print(data)
}
