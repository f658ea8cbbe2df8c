// Package renderer draws the NPC population as instanced quads fed directly
// from the GPU-owned position/health buffers plus the CPU visual/equipment
// side-channel.
package renderer

// The vertex shader reads the compute SSBOs directly: slot comes from the
// instance index, layer from a per-draw uniform. Tombstoned slots and hidden
// equipment layers are discarded via a sentinel clip position.

const npcVertexShader = `#version 430

in vec3 vertexPosition;
in vec2 vertexTexCoord;

layout(std430, binding = 0) readonly buffer PosBuf    { vec2 npcPos[]; };
layout(std430, binding = 3) readonly buffer HealthBuf { float npcHealth[]; };
layout(std430, binding = 20) readonly buffer VisualBuf { float visual[]; }; // 8 floats per slot
layout(std430, binding = 21) readonly buffer EquipBuf  { vec4 equip[]; };   // 6 layers per slot

uniform vec2 camOrigin;
uniform float camZoom;
uniform vec2 viewport;
uniform float layerIndex;

out vec2 fragTexCoord;
out vec4 fragColor;

int layer;

const float TOMBSTONE = -9000.0;
const vec4 DISCARD_POS = vec4(2e9, 2e9, 2e9, 1.0);

// Atlas-id thresholds pick per-layer color and scale: status icons (sleep)
// render white at 16 units, heal halos yellow at 20, carried items white at
// 16, the body uses its per-slot tint.
vec4 layerColor(int slot, float atlas) {
	if (layer == 0) {
		int base = slot * 8;
		vec4 tint = vec4(visual[base+3], visual[base+4], visual[base+5], visual[base+6]);
		float flash = visual[base+7];
		return mix(tint, vec4(1.0, 0.25, 0.2, 1.0), flash);
	}
	if (atlas >= 3.0) { return vec4(1.0, 0.95, 0.4, 1.0); } // heal halo
	return vec4(1.0);
}

float layerScale(float atlas) {
	if (layer == 0) { return 16.0; }
	if (atlas >= 3.0) { return 20.0; }
	return 16.0;
}

void main() {
	layer = int(layerIndex + 0.5);
	int slot = gl_InstanceID;
	vec2 p = npcPos[slot];

	float col;
	float atlas;
	if (layer == 0) {
		int base = slot * 8;
		col = visual[base];
		atlas = visual[base+2];
	} else {
		vec4 item = equip[slot * 6 + (layer - 1)];
		col = item.x;
		atlas = item.z;
	}

	if (p.x < TOMBSTONE || npcHealth[slot] <= 0.0 || col < 0.0) {
		gl_Position = DISCARD_POS;
		fragTexCoord = vertexTexCoord;
		fragColor = vec4(0.0);
		return;
	}

	float scale = layerScale(atlas);
	vec2 corner = (vertexTexCoord - 0.5) * scale;
	vec2 world = p + corner;
	vec2 screen = (world - camOrigin) * camZoom;
	vec2 ndc = screen / viewport * 2.0 - 1.0;

	gl_Position = vec4(ndc.x, -ndc.y, 0.0, 1.0);
	fragTexCoord = vertexTexCoord;
	fragColor = layerColor(slot, atlas);
}
`

const npcFragmentShader = `#version 430

in vec2 fragTexCoord;
in vec4 fragColor;

uniform sampler2D texture0;

out vec4 finalColor;

void main() {
	vec4 texel = texture(texture0, fragTexCoord);
	finalColor = texel * fragColor;
	if (finalColor.a < 0.01) { discard; }
}
`
