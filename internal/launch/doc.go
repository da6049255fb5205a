// SPDX-License-Identifier: MPL-2.0

// Package launch turns a resolved version descriptor, a player session and
// runtime options into the java command line that starts the game.
//
// Both descriptor formats are supported. Modern descriptors carry rule-gated
// "arguments" lists; legacy ones only a space-separated "minecraftArguments"
// string and get a default JVM block with the natives path and classpath.
// Every ${name} placeholder must resolve; one that does not is reported as a
// *manifest.MissingFieldError.
package launch
