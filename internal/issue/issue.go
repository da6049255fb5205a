// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	VersionNotFoundId
	DescriptorCycleId
	DescriptorIncompleteId
	DownloadFailedId
	IntegrityFailedId
	CorruptNativesId
	LoaderUnsupportedId
	ProcessorFailedId
	SignInDeclinedId
	DeviceCodeExpiredId
	SessionExpiredId
	NoGameOwnershipId
	NotSignedInId
	JavaNotFoundId
	PermissionDeniedId
	InvalidCredentialsId
	ModProblemsId
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
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Config file locations:
- Linux: ~/.config/blocklaunch/config.cue
- macOS: ~/Library/Application Support/blocklaunch/config.cue
- Windows: %APPDATA%\blocklaunch\config.cue

## Things you can try:
- Print the effective configuration:
~~~
$ blocklaunch config show
~~~
- Write a fresh default file and compare:
~~~
$ blocklaunch config init
~~~
- Durations are strings such as "500ms" or "2m"`,
	}

	versionNotFoundIssue = &Issue{
		id: VersionNotFoundId,
		mdMsg: `
# Version not found!

The requested game version is not installed and is not in the remote version list.

## Things you can try:
- List the versions the launcher knows about:
~~~
$ blocklaunch versions
~~~
- Use an alias such as "release" or "snapshot" for the newest version
- Check the version id for typos; ids are case sensitive`,
	}

	descriptorCycleIssue = &Issue{
		id: DescriptorCycleId,
		mdMsg: `
# Version inheritance cycle!

A version descriptor inherits from itself through its parent chain, so it can never be resolved.

## Things you can try:
- Inspect the "inheritsFrom" field of each descriptor listed in the error
- Reinstall the loader that produced the broken descriptor`,
	}

	descriptorIncompleteIssue = &Issue{
		id: DescriptorIncompleteId,
		mdMsg: `
# Incomplete version descriptor!

After merging the inheritance chain the descriptor still lacks a field needed to install or launch.

## Things you can try:
- Reinstall the base game version the loader builds on
- Remove the version directory under versions/ and install again`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

One or more files could not be fetched after every retry.

## Things you can try:
- Check your network connection and retry; files already on disk are not fetched again
- Configure a mirror in config.cue:
~~~cue
mirror: "https://bmclapi2.bangbang93.com"
~~~
- Raise download.max_attempts or download.timeout for slow links`,
	}

	integrityFailedIssue = &Issue{
		id: IntegrityFailedId,
		mdMsg: `
# Integrity check failed!

A downloaded file did not match its expected digest or size, from every source tried.
The file was discarded and nothing corrupt was left on disk.

## Things you can try:
- Retry later; the origin may be serving a stale copy
- Disable the mirror if one is configured`,
	}

	corruptNativesIssue = &Issue{
		id: CorruptNativesId,
		mdMsg: `
# Corrupt natives archive!

A native library archive could not be opened or contains unsafe entries.

## Things you can try:
- Delete the archive named in the error under libraries/ and install again`,
	}

	loaderUnsupportedIssue = &Issue{
		id: LoaderUnsupportedId,
		mdMsg: `
# Loader not available for this version!

The chosen mod loader publishes no build for the requested game version.

## Things you can try:
- Choose another game version
- Pass an explicit loader version, for example:
~~~
$ blocklaunch install 1.20.1 --loader fabric@0.15.11
~~~`,
	}

	processorFailedIssue = &Issue{
		id: ProcessorFailedId,
		mdMsg: `
# Loader installer step failed!

A post-install processor of the loader installer exited with an error.
Previously installed versions and libraries were left untouched.

## Things you can try:
- Check that java_path points to a working Java runtime
- Run again with --verbose to see the processor output`,
	}

	signInDeclinedIssue = &Issue{
		id: SignInDeclinedId,
		mdMsg: `
# Sign-in declined!

The sign-in request was declined on the Microsoft page.

## Things you can try:
- Run the login command again and approve the request:
~~~
$ blocklaunch login
~~~`,
	}

	deviceCodeExpiredIssue = &Issue{
		id: DeviceCodeExpiredId,
		mdMsg: `
# Sign-in code expired!

The code was not entered before it expired.

## Things you can try:
- Run the login command again and enter the new code promptly`,
	}

	sessionExpiredIssue = &Issue{
		id: SessionExpiredId,
		mdMsg: `
# Session could not be refreshed!

The stored session expired and the refresh token was rejected.

## Things you can try:
- Sign in again:
~~~
$ blocklaunch logout
$ blocklaunch login
~~~`,
	}

	noGameOwnershipIssue = &Issue{
		id: NoGameOwnershipId,
		mdMsg: `
# No game profile!

The account signed in successfully but has no game profile.

## Things you can try:
- Check that the game was purchased with this Microsoft account
- Create a profile name on the official website first`,
	}

	notSignedInIssue = &Issue{
		id: NotSignedInId,
		mdMsg: `
# Not signed in!

No session is stored for this launcher.

## Things you can try:
- Sign in with a Microsoft account:
~~~
$ blocklaunch login
~~~
- Or create an offline account:
~~~
$ blocklaunch login --offline Steve
~~~`,
	}

	javaNotFoundIssue = &Issue{
		id: JavaNotFoundId,
		mdMsg: `
# Java not found!

The Java executable used to run the game could not be started.

## Things you can try:
- Set java_path in config.cue to an absolute path:
~~~cue
java_path: "/usr/lib/jvm/java-21/bin/java"
~~~
- Check the runtime version the game needs in the version descriptor`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The launcher could not write to its game directory.

## Things you can try:
- Check ownership of the game directory
- Point game_dir in config.cue at a writable location`,
	}

	invalidCredentialsIssue = &Issue{
		id: InvalidCredentialsId,
		mdMsg: `
# Sign-in rejected!

The authentication server did not accept the username or password.

## Things you can try:
- Check the address of the authentication server
- Sign in with the email address registered on that server:
~~~
$ blocklaunch login --yggdrasil skins.example.com --username you@example.com
~~~`,
	}

	modProblemsIssue = &Issue{
		id: ModProblemsId,
		mdMsg: `
# Mod problems found!

Some installed mods are missing a dependency or conflict with another mod.

## Things you can try:
- List the problems and the mods involved:
~~~
$ blocklaunch mods <version>
~~~
- Install the missing mods or remove the conflicting ones from mods/`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		versionNotFoundIssue.Id():      versionNotFoundIssue,
		descriptorCycleIssue.Id():      descriptorCycleIssue,
		descriptorIncompleteIssue.Id(): descriptorIncompleteIssue,
		downloadFailedIssue.Id():       downloadFailedIssue,
		integrityFailedIssue.Id():      integrityFailedIssue,
		corruptNativesIssue.Id():       corruptNativesIssue,
		loaderUnsupportedIssue.Id():    loaderUnsupportedIssue,
		processorFailedIssue.Id():      processorFailedIssue,
		signInDeclinedIssue.Id():       signInDeclinedIssue,
		deviceCodeExpiredIssue.Id():    deviceCodeExpiredIssue,
		sessionExpiredIssue.Id():       sessionExpiredIssue,
		noGameOwnershipIssue.Id():      noGameOwnershipIssue,
		notSignedInIssue.Id():          notSignedInIssue,
		javaNotFoundIssue.Id():         javaNotFoundIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
		invalidCredentialsIssue.Id():   invalidCredentialsIssue,
		modProblemsIssue.Id():          modProblemsIssue,
	}
)

func Values() []*Issue {
	vals := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		vals = append(vals, i)
	}
	return vals
}

func Get(id Id) *Issue {
	return issues[id]
}
