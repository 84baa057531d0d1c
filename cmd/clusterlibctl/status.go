package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	clusterlib "github.com/yahoo/clusterlib-go"
	"github.com/yahoo/clusterlib-go/notifyable"
)

func init() {
	registerCommand("status", printStatus, statusUsage)
}

var statusUsage string = `Usage: clusterlibctl status -conf=[config file] -app=[application path]
`

var optAppPath *string

func init() {
	optAppPath = flag.String("app", "", "Application path to report on, e.g. /clusterlib/_apps/myapp")
}

func printStatus() {
	var cfg clusterlib.Config
	if err := cfg.LoadFromFile(*optConfigFile); err != nil {
		fmt.Printf("Unable to load config file: %s\n", err.Error())
		return
	}

	rt := clusterlib.NewRuntime(&cfg)
	if err := rt.Start(); err != nil {
		fmt.Printf("Unable to connect to repository: %s\n", err.Error())
		return
	}
	defer rt.Stop()

	app, err := rt.Factory.GetApplication(*optAppPath, false)
	if err != nil {
		fmt.Printf("Unable to resolve application %q: %s\n", *optAppPath, err.Error())
		return
	}
	defer rt.Factory.ReleaseRef(app.Notifyable)

	groupsContainer, err := app.GroupsContainer()
	if err != nil {
		fmt.Printf("Unable to resolve groups container: %s\n", err.Error())
		return
	}

	groupNames, err := rt.Factory.ListNames(groupsContainer, notifyable.GroupsChange, app.Notifyable)
	if err != nil {
		fmt.Printf("Unable to list groups: %s\n", err.Error())
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Group", "Leader", "State"})

	for _, name := range groupNames {
		group, err := rt.Factory.GetGroup(groupsContainer+"/"+name, false)
		if err != nil {
			table.Append([]string{name, "?", "unresolved"})
			continue
		}

		table.Append([]string{name, group.KnownLeader(), group.State().String()})
		rt.Factory.ReleaseRef(group.Notifyable)
	}

	table.Render()
}
