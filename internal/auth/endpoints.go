// SPDX-License-Identifier: MPL-2.0

package auth

// Endpoints are the URLs of the sign-in chain.
type Endpoints struct {
	DeviceCode string
	Token      string
	XboxLive   string
	XSTS       string
	GameLogin  string
	Profile    string
	// AuthlibInjector is the release metadata of the agent that Yggdrasil
	// sessions launch with.
	AuthlibInjector string
}

// DefaultEndpoints returns the production endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		DeviceCode: "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode",
		Token:      "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
		XboxLive:   "https://user.auth.xboxlive.com/user/authenticate",
		XSTS:       "https://xsts.auth.xboxlive.com/xsts/authorize",
		GameLogin:  "https://api.minecraftservices.com/authentication/login_with_xbox",
		Profile:    "https://api.minecraftservices.com/minecraft/profile",

		AuthlibInjector: "https://authlib-injector.yushi.moe/artifact/latest.json",
	}
}

// EndpointsAt points every endpoint at base, keeping the production paths.
// It is meant for test servers and proxies.
func EndpointsAt(base string) Endpoints {
	return Endpoints{
		DeviceCode: base + "/consumers/oauth2/v2.0/devicecode",
		Token:      base + "/consumers/oauth2/v2.0/token",
		XboxLive:   base + "/user/authenticate",
		XSTS:       base + "/xsts/authorize",
		GameLogin:  base + "/authentication/login_with_xbox",
		Profile:    base + "/minecraft/profile",

		AuthlibInjector: base + "/authlib-injector/artifact/latest.json",
	}
}
