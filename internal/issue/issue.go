// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	GameDirInvalidId Id = iota + 1
	StorageUnavailableId
	ArchiveUnsupportedId
	ArchiveCorruptId
	ConfigLoadFailedId
	DeployFailedId
	PurgeFailedId
	JournalCorruptId
	PackageNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	gameDirInvalidIssue = &Issue{
		id: GameDirInvalidId,
		mdMsg: `
# The game directory does not look like a Helldivers 2 install

hd2mm writes patch files into the game's ` + "`data`" + ` folder and refuses to
touch a directory that does not contain all of:

- ` + "`data/`" + `
- ` + "`tools/`" + `
- ` + "`bin/helldivers2.exe`" + `

## Things you can try:
- Point the setting at the folder that contains ` + "`bin`" + ` and ` + "`data`" + `:
~~~
$ hd2mm config init --game-dir "/path/to/steamapps/common/Helldivers 2"
~~~
- Or override it for one run:
~~~
$ HD2MM_GAME_DIRECTORY="/path/to/Helldivers 2" hd2mm deploy
~~~`,
		extLinks: []HttpLink{"https://help.steampowered.com/en/faqs/view/4BD4-4528-6B2E-8327"},
	}

	storageUnavailableIssue = &Issue{
		id: StorageUnavailableId,
		mdMsg: `
# The mod storage directory is not usable

hd2mm keeps every extracted package, the profile, the alias map and the
install journal under the storage directory. It could not be created or
written.

## Things you can try:
- Check that the path exists and is writable by your user
- Choose another location with ` + "`storage_directory`" + ` in the config file`,
	}

	archiveUnsupportedIssue = &Issue{
		id: ArchiveUnsupportedId,
		mdMsg: `
# Unsupported archive format

Packages can be added from ` + "`.zip`" + `, ` + "`.tar`" + `, ` + "`.tar.gz`" + `,
` + "`.tgz`" + `, ` + "`.tar.zst`" + `, ` + "`.rar`" + ` and ` + "`.7z`" + ` files.

## Things you can try:
- Re-download the mod; the file may be incomplete
- Extract it with another tool and re-pack it as a zip`,
	}

	archiveCorruptIssue = &Issue{
		id: ArchiveCorruptId,
		mdMsg: `
# The archive could not be read

The file was recognized but extraction failed part way through. Nothing was
added and the staging directory was removed.

## Things you can try:
- Re-download the mod
- Check that the disk holding the temp directory has free space`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

The config file exists but could not be parsed or failed validation.

## Things you can try:
- Inspect the effective settings:
~~~
$ hd2mm config show
~~~
- Write a fresh default file (the old one is overwritten):
~~~
$ hd2mm config init --force
~~~`,
	}

	deployFailedIssue = &Issue{
		id: DeployFailedId,
		mdMsg: `
# Deployment failed

Some files may have been written before the failure. They are recorded in
the install journal and will be removed by the next purge.

## Things you can try:
- Close the game; it locks files in ` + "`data`" + `
- Run a purge and deploy again:
~~~
$ hd2mm purge
$ hd2mm deploy
~~~`,
	}

	purgeFailedIssue = &Issue{
		id: PurgeFailedId,
		mdMsg: `
# Purge failed

The journal was kept so the purge can be retried.

## Things you can try:
- Close the game and retry ` + "`hd2mm purge`" + `
- As a last resort remove every patch file by name:
~~~
$ hd2mm hard-purge --yes
~~~`,
	}

	journalCorruptIssue = &Issue{
		id: JournalCorruptId,
		mdMsg: `
# The install journal is unreadable

hd2mm cannot tell which files it deployed last time.

## Things you can try:
- Remove every patch file by name and redeploy:
~~~
$ hd2mm hard-purge --yes
$ hd2mm deploy
~~~`,
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# No such package

Packages are addressed by alias, by full GUID, or by a unique GUID prefix.

## Things you can try:
- List the registered packages:
~~~
$ hd2mm list
~~~`,
	}

	issues = map[Id]*Issue{
		gameDirInvalidIssue.Id():     gameDirInvalidIssue,
		storageUnavailableIssue.Id(): storageUnavailableIssue,
		archiveUnsupportedIssue.Id(): archiveUnsupportedIssue,
		archiveCorruptIssue.Id():     archiveCorruptIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		deployFailedIssue.Id():       deployFailedIssue,
		purgeFailedIssue.Id():        purgeFailedIssue,
		journalCorruptIssue.Id():     journalCorruptIssue,
		packageNotFoundIssue.Id():    packageNotFoundIssue,
	}
)

// Values returns every catalogued issue ordered by Id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		values = append(values, i)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
